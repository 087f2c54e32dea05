package knowledge

import (
	"context"
	"sort"
	"strings"
)

// MemoryStore serves lookups straight from a slice of entries, without
// a database. It is read-only and safe for concurrent use.
type MemoryStore struct {
	byID map[string]Entry
	// keys ordered longest first so containment picks the most specific entry
	keys []string
}

func NewMemoryStore(entries []Entry) *MemoryStore {
	m := &MemoryStore{byID: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if e.Identifier == "" {
			continue
		}
		if _, ok := m.byID[e.Identifier]; !ok {
			m.keys = append(m.keys, e.Identifier)
		}
		m.byID[e.Identifier] = e
	}
	sort.Slice(m.keys, func(i, j int) bool {
		if len(m.keys[i]) != len(m.keys[j]) {
			return len(m.keys[i]) > len(m.keys[j])
		}
		return m.keys[i] < m.keys[j]
	})
	return m
}

func (m *MemoryStore) Definition(_ context.Context, key string) (Entry, bool, error) {
	e, ok := m.byID[key]
	return e, ok, nil
}

func (m *MemoryStore) ContainingDefinition(_ context.Context, identifier string) (Entry, bool, error) {
	for _, k := range m.keys {
		if strings.Contains(identifier, k) {
			return m.byID[k], true, nil
		}
	}
	return Entry{}, false, nil
}

func (m *MemoryStore) Len() int {
	return len(m.byID)
}
