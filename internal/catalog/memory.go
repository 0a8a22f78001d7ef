package catalog

import (
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/cases"

	"github.com/roach88/relalg/internal/ir"
)

// Memory is an in-memory catalog snapshot. Lookups take a read lock so
// any number of builds may share one Memory.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]*ir.TableDesc
}

// NewMemory returns a catalog holding tables. It panics on a duplicate
// name; use Add to handle that as an error.
func NewMemory(tables ...*ir.TableDesc) *Memory {
	m := &Memory{tables: make(map[string]*ir.TableDesc, len(tables))}
	for _, t := range tables {
		if err := m.Add(t); err != nil {
			panic(err)
		}
	}
	return m
}

// foldName is the lookup key for a table name. A fresh Caser per call
// because a Caser must not be shared between goroutines.
func foldName(name string) string {
	return cases.Fold().String(name)
}

// Add registers a table. Names must be unique ignoring case.
func (m *Memory) Add(t *ir.TableDesc) error {
	if t == nil || t.Name == "" {
		return errors.New("catalog: table name is required")
	}
	key := foldName(t.Name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[key]; ok {
		return errors.Newf("catalog: duplicate table %q", t.Name)
	}
	m.tables[key] = t
	return nil
}

// LookupTable returns the descriptor for name.
func (m *Memory) LookupTable(name string) (*ir.TableDesc, bool) {
	key := foldName(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[key]
	return t, ok
}

// Tables returns all tables sorted by name.
func (m *Memory) Tables() []*ir.TableDesc {
	m.mu.RLock()
	out := make([]*ir.TableDesc, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, t)
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b *ir.TableDesc) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// replace swaps the whole table set atomically.
func (m *Memory) replace(tables map[string]*ir.TableDesc) {
	m.mu.Lock()
	m.tables = tables
	m.mu.Unlock()
}

// Close is a no-op; it lets Memory satisfy Source.
func (m *Memory) Close() error { return nil }
