// Package updatemgr tracks the in-memory primary key indexes of loaded
// tablets.
//
// The manager is a process-wide registry: at most one index per tablet.
// Eviction drops the cached index so the next access rebuilds it from
// storage; evicting a tablet that has no cached index is a no-op.
package updatemgr

import (
	"sync"

	"github.com/hupe1980/lakego/model"
	"github.com/hupe1980/lakego/pkindex"
)

// Manager caches primary key indexes by tablet. Safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	indexes map[model.TabletID]*pkindex.Index
}

// New creates an empty Manager.
func New() *Manager {
	return &Manager{
		indexes: make(map[model.TabletID]*pkindex.Index),
	}
}

// Get returns the cached index for tabletID, or nil.
func (m *Manager) Get(tabletID model.TabletID) *pkindex.Index {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.indexes[tabletID]
}

// Put caches idx for tabletID, replacing any previous index.
func (m *Manager) Put(tabletID model.TabletID, idx *pkindex.Index) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.indexes[tabletID] = idx
}

// Evict drops the cached index for tabletID. It reports whether an
// index was cached; evicting an absent tablet is tolerated.
func (m *Manager) Evict(tabletID model.TabletID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.indexes[tabletID]
	delete(m.indexes, tabletID)
	return ok
}

// Len returns the number of cached indexes.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.indexes)
}
