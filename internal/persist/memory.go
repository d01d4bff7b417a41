package persist

import (
	"context"
	"sync"

	"pkt.systems/tabstack/schema"
)

// MemoryBackend keeps snapshots in process memory.
type MemoryBackend struct {
	mu    sync.Mutex
	snaps map[schema.UserID]schema.NavSnapshot
}

// NewMemoryBackend constructs an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{snaps: make(map[schema.UserID]schema.NavSnapshot)}
}

func (b *MemoryBackend) Load(_ context.Context, userID schema.UserID) (schema.NavSnapshot, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap, ok := b.snaps[userID]
	if !ok {
		return schema.NavSnapshot{}, false, nil
	}
	return snap.Clone(), true, nil
}

func (b *MemoryBackend) Save(_ context.Context, userID schema.UserID, snapshot schema.NavSnapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snaps[userID] = snapshot.Clone()
	return nil
}

func (b *MemoryBackend) Close() error {
	return nil
}
