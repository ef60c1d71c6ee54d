package ldap

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Memory returns an in-memory DirectoryClient. It evaluates filters with
// a tiny LDAP-filter subset sufficient for tests and for showcasing the
// resource mapping pipeline; it is not a production directory client,
// mirroring the teacher's in-memory DB test double which exists only
// for testing and demonstration purposes.
func Memory() *MemoryClient {
	return &MemoryClient{entries: make(map[string]*Entry)}
}

// MemoryClient is a goroutine-safe in-memory DirectoryClient.
type MemoryClient struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

var _ DirectoryClient = (*MemoryClient)(nil)

func (m *MemoryClient) Add(_ context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(entry.DN)
	if _, exists := m.entries[key]; exists {
		return fmt.Errorf("ldap: entry already exists at %q", entry.DN)
	}
	m.entries[key] = entry
	return nil
}

func (m *MemoryClient) Read(_ context.Context, dn string, _ []string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[strings.ToLower(dn)], nil
}

func (m *MemoryClient) Modify(_ context.Context, dn string, mods []Modification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[strings.ToLower(dn)]
	if !ok {
		return fmt.Errorf("ldap: no entry at %q", dn)
	}
	for _, mod := range mods {
		switch mod.Op {
		case ModAdd:
			e.Set(mod.AttrType, append(e.Attribute(mod.AttrType), mod.Values...)...)
		case ModReplace:
			e.Set(mod.AttrType, mod.Values...)
		case ModDelete:
			e.Set(mod.AttrType)
		}
	}
	return nil
}

func (m *MemoryClient) Delete(_ context.Context, dn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, strings.ToLower(dn))
	return nil
}

func (m *MemoryClient) Search(_ context.Context, baseDN string, _ SearchScope, filter string, _ []string, sortControl *SortControl) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Entry
	suffix := strings.ToLower(baseDN)
	for dn, e := range m.entries {
		if dn != suffix && !strings.HasSuffix(dn, ","+suffix) {
			continue
		}
		if filter != "" {
			ok, err := MatchFilter(e, filter)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, e)
	}
	sortSearchResults(out, sortControl)
	return out, nil
}

// sortSearchResults orders entries deterministically: by sortControl's
// attribute when given, else by DN, so callers paginating across
// multiple Search calls see a stable sequence. A map-backed store has no
// natural order of its own; a real directory server would return rows
// ordered by the requested sort control, or by some stable default.
func sortSearchResults(entries []*Entry, sortControl *SortControl) {
	less := func(i, j int) bool {
		return strings.ToLower(entries[i].DN) < strings.ToLower(entries[j].DN)
	}
	if sortControl != nil {
		attr := sortControl.AttrType
		less = func(i, j int) bool {
			a, b := entries[i].First(attr), entries[j].First(attr)
			if sortControl.Descending {
				return a > b
			}
			return a < b
		}
	}
	sort.Slice(entries, less)
}
