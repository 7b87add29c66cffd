package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/dalilfazara/dalil/internal/domain"
	"github.com/dalilfazara/dalil/pkg/cache"
)

// SnapshotKey is the cache key of the latest dashboard snapshot
const SnapshotKey = "dalil:dashboard:snapshot"

// MemorySnapshotStore keeps the snapshot in the process cache
type MemorySnapshotStore struct {
	cache cache.Cache
	ttl   time.Duration
}

var _ domain.SnapshotStore = (*MemorySnapshotStore)(nil)

// NewMemorySnapshotStore creates a store over c
func NewMemorySnapshotStore(c cache.Cache, ttl time.Duration) *MemorySnapshotStore {
	return &MemorySnapshotStore{cache: c, ttl: ttl}
}

// Get returns the cached snapshot, if any
func (s *MemorySnapshotStore) Get(_ context.Context) (*domain.Snapshot, bool, error) {
	v, ok := s.cache.Get(SnapshotKey)
	if !ok {
		return nil, false, nil
	}
	snap, ok := v.(*domain.Snapshot)
	if !ok {
		return nil, false, fmt.Errorf("unexpected snapshot type %T", v)
	}
	return snap, true, nil
}

// Set replaces the cached snapshot
func (s *MemorySnapshotStore) Set(_ context.Context, snap *domain.Snapshot) error {
	s.cache.Set(SnapshotKey, snap, s.ttl)
	return nil
}

// ValkeySnapshotStore shares the snapshot between API replicas
type ValkeySnapshotStore struct {
	client valkey.Client
	ttl    time.Duration
}

var _ domain.SnapshotStore = (*ValkeySnapshotStore)(nil)

// DefaultSnapshotTTL applies when no positive TTL is configured
const DefaultSnapshotTTL = 10 * time.Minute

// NewValkeySnapshotStore creates a store over client
func NewValkeySnapshotStore(client valkey.Client, ttl time.Duration) *ValkeySnapshotStore {
	if ttl < time.Second {
		ttl = DefaultSnapshotTTL
	}
	return &ValkeySnapshotStore{client: client, ttl: ttl}
}

// NewValkeyClient connects to a single valkey node
func NewValkeyClient(address, password string, db int) (valkey.Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{address},
		Password:    password,
		SelectDB:    db,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey at %s: %w", address, err)
	}
	return client, nil
}

func encodeSnapshot(snap *domain.Snapshot) (string, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return string(raw), nil
}

func decodeSnapshot(raw string) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// Get reads the snapshot. A missing key is not an error.
func (s *ValkeySnapshotStore) Get(ctx context.Context) (*domain.Snapshot, bool, error) {
	raw, err := s.client.Do(ctx, s.client.B().Get().Key(SnapshotKey).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get snapshot: %w", err)
	}

	snap, err := decodeSnapshot(raw)
	if err != nil {
		return nil, false, err
	}
	return snap, true, nil
}

// Set writes the snapshot with the configured expiry
func (s *ValkeySnapshotStore) Set(ctx context.Context, snap *domain.Snapshot) error {
	raw, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	cmd := s.client.B().Set().Key(SnapshotKey).Value(raw).Ex(s.ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to set snapshot: %w", err)
	}
	return nil
}
