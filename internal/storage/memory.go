// internal/storage/memory.go
package storage

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"factorypulse-gateway/internal/data"
)

const maxEntries = 500 // journal keeps the newest 500 rows

var ErrNotFound = errors.New("maintenance log not found")

// MemoryStore is the maintenance journal, newest entry first.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []data.MaintenanceLog
	capacity int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make([]data.MaintenanceLog, 0, 16),
		capacity: maxEntries,
	}
}

// NewSeededStore returns a store holding the sample journal shown on a fresh
// dashboard.
func NewSeededStore() *MemoryStore {
	s := NewMemoryStore()
	s.entries = append(s.entries,
		data.MaintenanceLog{ID: "1", Date: "2025-01-30", Issue: "Temperature spike detected", Resolution: "Cooling fan replaced, system optimized"},
		data.MaintenanceLog{ID: "2", Date: "2025-01-29", Issue: "Vibration threshold exceeded", Resolution: "Motor bearing lubricated, calibration adjusted"},
		data.MaintenanceLog{ID: "3", Date: "2025-01-28", Issue: "Power consumption anomaly", Resolution: "Electrical connections tightened, efficiency restored"},
	)
	return s
}

// Add prepends entry, assigning an id when it has none.
func (s *MemoryStore) Add(entry data.MaintenanceLog) data.MaintenanceLog {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append([]data.MaintenanceLog{entry}, s.entries...)
	if len(s.entries) > s.capacity {
		// Remove the oldest element
		s.entries = s.entries[:s.capacity]
	}
	return entry
}

func (s *MemoryStore) Get(id string) (data.MaintenanceLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return data.MaintenanceLog{}, ErrNotFound
}

// Update replaces the row with entry.ID, keeping its position.
func (s *MemoryStore) Update(entry data.MaintenanceLog) (data.MaintenanceLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.ID == entry.ID {
			s.entries[i] = entry
			return entry, nil
		}
	}
	return data.MaintenanceLog{}, ErrNotFound
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// GetRecent returns up to count entries, newest first. count <= 0 means all.
func (s *MemoryStore) GetRecent(count int) []data.MaintenanceLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if count <= 0 || count > len(s.entries) {
		count = len(s.entries)
	}
	// Return a copy to avoid race conditions if the caller modifies it
	result := make([]data.MaintenanceLog, count)
	copy(result, s.entries[:count])
	return result
}

func (s *MemoryStore) GetAll() []data.MaintenanceLog {
	return s.GetRecent(0)
}
