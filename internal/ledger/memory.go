package ledger

import (
	"context"
	"sort"
	"sync"
)

type memoryEntry struct {
	value   []byte
	version uint64
}

// Memory is an in-process multi-version world state. It backs tests and the
// gateway's demo mode when no database is reachable.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	height  uint64
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

// Begin opens a transaction reading the latest committed state.
func (m *Memory) Begin(ctx context.Context, meta TxMeta) (Tx, error) {
	return newTransaction(ctx, m, meta), nil
}

// Height returns the number of committed transactions that wrote data.
func (m *Memory) Height() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.height
}

// Len returns the number of keys in the world state, index entries included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) get(_ context.Context, key string) ([]byte, uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, 0, nil
	}
	return append([]byte(nil), e.value...), e.version, nil
}

func (m *Memory) scan(_ context.Context, start, end string) ([]versionedKV, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scanLocked(start, end), nil
}

func (m *Memory) scanLocked(start, end string) []versionedKV {
	out := make([]versionedKV, 0)
	for k, e := range m.entries {
		if k < start || (end != "" && k >= end) {
			continue
		}
		out = append(out, versionedKV{key: k, value: append([]byte(nil), e.value...), version: e.version})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

func (m *Memory) apply(_ context.Context, ws writeSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range ws.sortedReads() {
		if m.entries[key].version != ws.reads[key] {
			return conflictError("key %q was modified after transaction %s read it", key, ws.txID)
		}
	}
	for _, r := range ws.ranges {
		current := m.scanLocked(r.start, r.end)
		if len(current) != len(r.versions) {
			return conflictError("range [%q, %q) changed after transaction %s scanned it", r.start, r.end, ws.txID)
		}
		for _, e := range current {
			if v, ok := r.versions[e.key]; !ok || v != e.version {
				return conflictError("range [%q, %q) changed after transaction %s scanned it", r.start, r.end, ws.txID)
			}
		}
	}

	if len(ws.writes) == 0 {
		return nil
	}
	for _, key := range ws.sortedWrites() {
		e := m.entries[key]
		m.entries[key] = memoryEntry{value: ws.writes[key], version: e.version + 1}
	}
	m.height++
	return nil
}
