package cashsession

import (
	"context"
	"sync"
)

// DraftStore keeps the opening draft of each operator and serializes workflow
// mutations per operator.
type DraftStore interface {
	// Get returns the operator's draft, or nil when the operator is idle.
	Get(ctx context.Context, key string) (*Draft, error)
	Put(ctx context.Context, key string, d *Draft) error
	Delete(ctx context.Context, key string) error
	// Lock claims the operator's workflow. It fails with ErrWorkflowBusy instead of
	// waiting when another request holds it.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type memoryDraftStore struct {
	mu     sync.Mutex
	drafts map[string]Draft
	locked map[string]bool
}

// NewMemoryDraftStore keeps drafts in process memory.
func NewMemoryDraftStore() DraftStore {
	return &memoryDraftStore{
		drafts: make(map[string]Draft),
		locked: make(map[string]bool),
	}
}

func (m *memoryDraftStore) Get(_ context.Context, key string) (*Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[key]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *memoryDraftStore) Put(_ context.Context, key string, d *Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[key] = *d
	return nil
}

func (m *memoryDraftStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, key)
	return nil
}

func (m *memoryDraftStore) Lock(_ context.Context, key string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked[key] {
		return nil, ErrWorkflowBusy
	}
	m.locked[key] = true
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.locked, key)
			m.mu.Unlock()
		})
	}, nil
}
