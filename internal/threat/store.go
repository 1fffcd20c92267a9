package threat

import (
	"context"
	"sync"
)

const defaultStoreCapacity = 10000

// MemoryStore keeps the most recent alert records in a fixed-size ring.
type MemoryStore struct {
	mu    sync.Mutex
	data  []AlertRecord
	next  int
	full  bool
	total int
}

// NewMemoryStore returns a store retaining up to capacity records; a
// non-positive capacity selects the default.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultStoreCapacity
	}
	return &MemoryStore{data: make([]AlertRecord, capacity)}
}

func (m *MemoryStore) Save(ctx context.Context, rec AlertRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[m.next] = rec
	m.next = (m.next + 1) % len(m.data)
	if m.next == 0 {
		m.full = true
	}
	m.total++
	return nil
}

// Recent returns up to n records, newest first.
func (m *MemoryStore) Recent(n int) []AlertRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	size := m.next
	if m.full {
		size = len(m.data)
	}
	n = min(n, size)
	out := make([]AlertRecord, 0, n)
	for i := 0; i < n; i++ {
		idx := (m.next - 1 - i + len(m.data)) % len(m.data)
		out = append(out, m.data[idx])
	}
	return out
}

// Total reports how many records were ever saved.
func (m *MemoryStore) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}
