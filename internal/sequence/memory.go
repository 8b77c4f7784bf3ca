package sequence

import (
	"context"
	"sync"

	"github.com/joseph-ayodele/invoice-bundler/constants"
)

// MemoryStore keeps the counter in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	next int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{next: constants.InitialInvoiceValue}
}

func (m *MemoryStore) Read(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next, nil
}

func (m *MemoryStore) IncrementAndGet(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.next
	m.next++
	return n, nil
}

func (m *MemoryStore) Close() error { return nil }
