package store

import (
	"context"
	"sync"
	"time"

	"github.com/jbonatakis/reqmatrix/internal/matrix"
)

type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]Record{}, now: time.Now}
}

func (m *MemoryStore) Load(_ context.Context, serviceID string) (Record, error) {
	if err := checkServiceID(serviceID); err != nil {
		return Record{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[serviceID]
	if !ok {
		return emptyRecord(serviceID), nil
	}
	rec.State = rec.State.Clone()
	return rec, nil
}

func (m *MemoryStore) Save(ctx context.Context, serviceID string, s matrix.State) (Record, error) {
	if err := checkServiceID(serviceID); err != nil {
		return Record{}, err
	}
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	rec := newRecord(serviceID, s, m.now())
	m.mu.Lock()
	m.records[serviceID] = rec
	m.mu.Unlock()

	rec.State = rec.State.Clone()
	return rec, nil
}

func (m *MemoryStore) Close() error { return nil }
