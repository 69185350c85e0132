package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/alf/pkg/domain"
	"github.com/aretw0/alf/pkg/knowledge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractSnapshot(sessionID string) *domain.Snapshot {
	kb := knowledge.New()
	_ = kb.AddKnowledge(domain.Word{0, 1}, true)
	_ = kb.AddKnowledge(domain.Word{}, false)
	kb.MarkRequired(domain.Word{1})

	yes := true
	return &domain.Snapshot{
		SessionID:    sessionID,
		Mode:         "equality",
		AlphabetSize: 2,
		Knowledge:    kb.Serialize(),
		Counterexamples: []domain.Counterexample{
			{Word: domain.Word{0, 1}, Answer: &yes},
			{Word: domain.Word{1, 1}},
		},
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// RunKnowledgeStoreContract runs a suite of tests to verify that a KnowledgeStore
// implementation adheres to the defined interface contract.
func RunKnowledgeStoreContract(t *testing.T, store KnowledgeStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := contractSnapshot(sessionID)

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.Mode, loaded.Mode)
		assert.Equal(t, snap.AlphabetSize, loaded.AlphabetSize)
		assert.Equal(t, snap.Knowledge, loaded.Knowledge, "knowledge bytes must survive untouched")
		assert.Equal(t, snap.Counterexamples, loaded.Counterexamples)
		assert.True(t, snap.UpdatedAt.Equal(loaded.UpdatedAt))

		restored := knowledge.New()
		require.NoError(t, restored.Deserialize(loaded.Knowledge))
		assert.Equal(t, 2, restored.CountAnswers())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		snap := contractSnapshot(sessionID)
		snap.AlphabetSize = 5
		require.NoError(t, store.Save(ctx, sessionID, snap))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 5, loaded.AlphabetSize)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, contractSnapshot(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, contractSnapshot(id1))
		_ = store.Save(ctx, id2, contractSnapshot(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
