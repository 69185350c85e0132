package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/alf"
	"github.com/aretw0/alf/pkg/adapters/memory"
	"github.com/aretw0/alf/pkg/adapters/oracle"
	"github.com/aretw0/alf/pkg/adapters/redis"
	"github.com/aretw0/alf/pkg/domain"
	"github.com/aretw0/alf/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
}

func (s SlowStore) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	return s.Store.Load(ctx, sessionID)
}

func (s SlowStore) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	return s.Store.Save(ctx, sessionID, snap)
}

func containsZeroOne(t *testing.T) *oracle.Automaton {
	t.Helper()
	o, err := oracle.New(&domain.Automaton{
		AlphabetSize: 2,
		States:       3,
		Initial:      []int{0},
		Accepting:    []int{2},
		Transitions: []domain.Transition{
			{From: 0, Symbol: 0, To: 1}, {From: 0, Symbol: 1, To: 0},
			{From: 1, Symbol: 0, To: 1}, {From: 1, Symbol: 1, To: 2},
			{From: 2, Symbol: 0, To: 2}, {From: 2, Symbol: 1, To: 2},
		},
	})
	require.NoError(t, err)
	return o
}

func TestManager_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(memory.NewStore())

	id, err := mgr.Create(ctx, 2, "covering")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	snap, err := mgr.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, snap.SessionID)
	assert.Equal(t, "covering", snap.Mode)

	err = mgr.Update(ctx, id, func(ctx context.Context, l *alf.Learner) error {
		_, err := l.Advance(ctx)
		return err
	})
	require.NoError(t, err)

	err = mgr.View(ctx, id, func(ctx context.Context, l *alf.Learner) error {
		assert.Equal(t, 3, l.Knowledge().CountQueries(), "queries survive the round trip")
		return nil
	})
	require.NoError(t, err)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
}

func TestManager_FailedUpdateIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(memory.NewStore())
	id, err := mgr.Create(ctx, 2, "equality")
	require.NoError(t, err)

	err = mgr.Update(ctx, id, func(ctx context.Context, l *alf.Learner) error {
		require.NoError(t, l.Answer(ctx, domain.Word{1}, true))
		return l.Answer(ctx, domain.Word{1}, false)
	})
	assert.ErrorIs(t, err, domain.ErrKnowledgeConflict)

	err = mgr.View(ctx, id, func(ctx context.Context, l *alf.Learner) error {
		assert.Equal(t, 0, l.Knowledge().CountAnswers())
		return nil
	})
	require.NoError(t, err)
}

func TestManager_Errors(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(memory.NewStore())

	_, err := mgr.Create(ctx, 2, "sat")
	assert.Error(t, err)

	_, err = mgr.Create(ctx, -1, "equality")
	assert.ErrorIs(t, err, domain.ErrInvalidAlphabet)

	_, err = mgr.Create(ctx, domain.MaxAlphabetSize+1, "equality")
	assert.ErrorIs(t, err, domain.ErrInvalidAlphabet)

	err = mgr.Update(ctx, "missing", func(context.Context, *alf.Learner) error { return nil })
	assert.True(t, session.IsNotFound(err))

	err = mgr.Delete(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_ConcurrentUpdatesAreSerialized(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(SlowStore{memory.NewStore()})
	id, err := mgr.Create(ctx, 2, "equality")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(sym int) {
			defer wg.Done()
			err := mgr.Update(ctx, id, func(ctx context.Context, l *alf.Learner) error {
				return l.Answer(ctx, domain.Word{domain.Symbol(sym)}, true)
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Without locking, read-modify-write cycles would lose answers.
	err = mgr.View(ctx, id, func(ctx context.Context, l *alf.Learner) error {
		assert.Equal(t, 8, l.Knowledge().CountAnswers())
		return nil
	})
	require.NoError(t, err)
}

func TestManager_LearnsAcrossRequests(t *testing.T) {
	ctx := context.Background()
	o := containsZeroOne(t)

	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	mgr := session.NewManager(redis.NewFromClient(client),
		session.WithLocker(redis.NewLocker(client, "test:")),
	)
	id, err := mgr.Create(ctx, 2, "equality")
	require.NoError(t, err)

	var conj *domain.Automaton
	for range 100 {
		var done bool
		err := mgr.Update(ctx, id, func(ctx context.Context, l *alf.Learner) error {
			status, err := l.Advance(ctx)
			if err != nil {
				return err
			}
			if status == alf.StatusQueriesPending {
				return l.ResolveBatch(ctx, o)
			}
			c, err := l.Conjecture(ctx)
			if err != nil {
				return err
			}
			cex, err := o.Check(ctx, c)
			if err != nil {
				return err
			}
			if cex == nil {
				conj, done = c, true
				return nil
			}
			return l.AddCounterexample(ctx, *cex)
		})
		require.NoError(t, err)
		if done {
			break
		}
	}
	require.NotNil(t, conj)
	assert.Equal(t, 3, conj.States)
	assert.False(t, mr.Exists("test:lock:"+id), "the distributed lock is released")
}
