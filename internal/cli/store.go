package cli

import (
	"io"

	"github.com/aretw0/alf/pkg/adapters/file"
	"github.com/aretw0/alf/pkg/adapters/memory"
	"github.com/aretw0/alf/pkg/adapters/redis"
	"github.com/aretw0/alf/pkg/persistence/middleware"
	"github.com/aretw0/alf/pkg/ports"
	"github.com/aretw0/alf/pkg/session"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore builds the configured knowledge store. The returned closer releases
// any connection the store holds. Redis also yields a distributed locker.
func OpenStore(cfg Config) (ports.KnowledgeStore, ports.DistributedLocker, io.Closer, error) {
	var (
		store  ports.KnowledgeStore
		locker ports.DistributedLocker
		closer io.Closer = nopCloser{}
	)
	switch cfg.Store {
	case StoreRedis:
		rs := redis.New(cfg.RedisAddr, "", 0, redis.WithPrefix(cfg.RedisPrefix))
		store, locker, closer = rs, redis.NewLocker(rs.Client(), cfg.RedisPrefix), rs
	case StoreMemory:
		store = memory.NewStore()
	default:
		store = file.New(cfg.StoreDir)
	}

	if cfg.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			closer.Close()
			return nil, nil, nil, err
		}
		seal, err := middleware.NewEncryptionMiddleware(key)
		if err != nil {
			closer.Close()
			return nil, nil, nil, err
		}
		store = seal(store)
	}
	return store, locker, closer, nil
}

// NewManager opens the configured store and wraps it in a session manager.
func NewManager(cfg Config, opts ...session.Option) (*session.Manager, io.Closer, error) {
	store, locker, closer, err := OpenStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	if locker != nil {
		opts = append(opts, session.WithLocker(locker))
	}
	return session.NewManager(store, opts...), closer, nil
}
