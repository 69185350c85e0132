package middleware

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/alf/pkg/domain"
	"github.com/aretw0/alf/pkg/ports"
)

// ErrNotSealed is returned when an encrypted store finds a plain snapshot.
var ErrNotSealed = errors.New("snapshot knowledge is not sealed")

// sealPrefix tags the Knowledge field of a sealed snapshot.
var sealPrefix = []byte("alf:aes-gcm:")

// secret is the part of a snapshot that never reaches the store in clear.
// Mode, alphabet size and timestamps stay readable for listing and inspection.
type secret struct {
	Knowledge       []byte                  `json:"knowledge"`
	Counterexamples []domain.Counterexample `json:"counterexamples,omitempty"`
}

type sealingStore struct {
	next ports.KnowledgeStore
	// keys[0] seals; every key is tried when opening.
	keys []cipher.AEAD
}

// NewEncryptionMiddleware seals the knowledge tree and counterexamples of every
// snapshot with AES-256-GCM, bound to the session ID. The first key seals new
// snapshots; later keys only open old ones, which allows rotation.
func NewEncryptionMiddleware(active []byte, previous ...[]byte) (Middleware, error) {
	var keys []cipher.AEAD
	for i, k := range append([][]byte{active}, previous...) {
		if len(k) != 32 {
			return nil, fmt.Errorf("key %d: want 32 bytes, got %d", i, len(k))
		}
		block, err := aes.NewCipher(k)
		if err != nil {
			return nil, err
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		keys = append(keys, aead)
	}
	return func(next ports.KnowledgeStore) ports.KnowledgeStore {
		return &sealingStore{next: next, keys: keys}
	}, nil
}

// ParseKey decodes a 32 byte key given as 64 hex digits or standard base64.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if key, err := hex.DecodeString(s); err == nil && len(key) == 32 {
		return key, nil
	}
	if key, err := base64.StdEncoding.DecodeString(s); err == nil && len(key) == 32 {
		return key, nil
	}
	return nil, errors.New("encryption key must be 32 bytes, hex or base64 encoded")
}

// IsSealed reports whether snap carries sealed knowledge.
func IsSealed(snap *domain.Snapshot) bool {
	return bytes.HasPrefix(snap.Knowledge, sealPrefix)
}

func (s *sealingStore) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	plain, err := json.Marshal(secret{Knowledge: snap.Knowledge, Counterexamples: snap.Counterexamples})
	if err != nil {
		return fmt.Errorf("failed to marshal session secret: %w", err)
	}

	aead := s.keys[0]
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	out := append(bytes.Clone(sealPrefix), nonce...)
	out = aead.Seal(out, nonce, plain, []byte(sessionID))

	sealed := *snap
	sealed.Knowledge = out
	sealed.Counterexamples = nil
	return s.next.Save(ctx, sessionID, &sealed)
}

func (s *sealingStore) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	snap, err := s.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !IsSealed(snap) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotSealed)
	}

	plain, err := s.open(snap.Knowledge[len(sealPrefix):], []byte(sessionID))
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	var sec secret
	if err := json.Unmarshal(plain, &sec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session secret: %w", err)
	}
	snap.Knowledge = sec.Knowledge
	snap.Counterexamples = sec.Counterexamples
	return snap, nil
}

func (s *sealingStore) open(data, sessionID []byte) ([]byte, error) {
	for _, aead := range s.keys {
		n := aead.NonceSize()
		if len(data) < n {
			return nil, errors.New("sealed knowledge too short")
		}
		if plain, err := aead.Open(nil, data[:n], data[n:], sessionID); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("no key opens the sealed knowledge")
}

func (s *sealingStore) Delete(ctx context.Context, sessionID string) error {
	return s.next.Delete(ctx, sessionID)
}

func (s *sealingStore) List(ctx context.Context) ([]string, error) {
	return s.next.List(ctx)
}
