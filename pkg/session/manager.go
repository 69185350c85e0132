package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/alf"
	"github.com/aretw0/alf/internal/logging"
	"github.com/aretw0/alf/pkg/domain"
	"github.com/aretw0/alf/pkg/ports"
	"github.com/aretw0/alf/pkg/table"
	"github.com/google/uuid"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates access to persisted learners, ensuring safe concurrent
// operations. Every operation restores the learner from its snapshot, runs under
// the session lock and persists the result.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.KnowledgeStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker      ports.DistributedLocker // Optional distributed locker
	lockTTL     time.Duration
	logger      *slog.Logger
	learnerOpts []alf.Option
	newID       func() string
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the lease of distributed locks. Defaults to 30 seconds.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithLearnerOptions sets options applied to every learner the manager builds,
// such as hooks or a logger.
func WithLearnerOptions(opts ...alf.Option) Option {
	return func(m *Manager) {
		m.learnerOpts = append(m.learnerOpts, opts...)
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.KnowledgeStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(), // Default to no-op
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Create starts a new learning session and returns its ID.
func (m *Manager) Create(ctx context.Context, alphabetSize int, mode string) (string, error) {
	if err := domain.ValidateAlphabetSize(alphabetSize); err != nil {
		return "", err
	}
	policy, err := table.PolicyByName(mode)
	if err != nil {
		return "", err
	}

	id := m.newID()
	err = m.WithLock(ctx, id, func(ctx context.Context) error {
		l := alf.New(alphabetSize, append(m.learnerOpts, alf.WithPolicy(policy))...)
		return m.save(ctx, id, l)
	})
	if err != nil {
		return "", err
	}
	m.logger.Info("session created", "session_id", id, "mode", policy.Name(), "alphabet_size", alphabetSize)
	return id, nil
}

func (m *Manager) restore(ctx context.Context, sessionID string) (*alf.Learner, error) {
	snap, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	l, err := alf.Restore(snap, m.learnerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", sessionID, err)
	}
	return l, nil
}

func (m *Manager) save(ctx context.Context, sessionID string, l *alf.Learner) error {
	snap := l.Snapshot()
	snap.SessionID = sessionID
	if err := m.store.Save(ctx, sessionID, snap); err != nil {
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	return nil
}

// Update runs fn on the session's learner and persists it afterwards. When fn
// fails nothing is persisted, so a rejected request leaves the session as it was.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(context.Context, *alf.Learner) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		l, err := m.restore(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := fn(ctx, l); err != nil {
			return err
		}
		return m.save(ctx, sessionID, l)
	})
}

// View runs fn on the session's learner without persisting any change.
func (m *Manager) View(ctx context.Context, sessionID string, fn func(context.Context, *alf.Learner) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		l, err := m.restore(ctx, sessionID)
		if err != nil {
			return err
		}
		return fn(ctx, l)
	})
}

// Load retrieves the raw snapshot of a session.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, sessionID)
		return err
	})
	return snap, err
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if _, err := m.store.Load(ctx, sessionID); err != nil {
			return err
		}
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying knowledge store.
func (m *Manager) Store() ports.KnowledgeStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// Released with a fresh context so a cancelled request still unlocks
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrSessionNotFound)
}
