package cache

import (
	"context"
	gosync "sync"
	"time"

	"github.com/syncbridge/backend/internal/domain/integration"
)

// InMemoryIdentityRepository is a process-local identity store with the same
// semantics as the Redis implementation. Suitable for tests and single-run
// local use; state does not survive the process.
type InMemoryIdentityRepository struct {
	mu       gosync.RWMutex
	records  map[integration.EntityFamily]map[int64]integration.IdentityRecord
	byLocal  map[integration.EntityFamily]map[string]int64
	lastSync map[integration.EntityFamily]time.Time
}

// NewInMemoryIdentityRepository creates an empty in-memory store.
func NewInMemoryIdentityRepository() *InMemoryIdentityRepository {
	return &InMemoryIdentityRepository{
		records:  make(map[integration.EntityFamily]map[int64]integration.IdentityRecord),
		byLocal:  make(map[integration.EntityFamily]map[string]int64),
		lastSync: make(map[integration.EntityFamily]time.Time),
	}
}

// Get returns the record for an ERP id.
func (s *InMemoryIdentityRepository) Get(_ context.Context, family integration.EntityFamily, erpID int64) (*integration.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[family][erpID]
	if !ok {
		return nil, integration.ErrIdentityNotFound
	}
	return &record, nil
}

// GetByLocal resolves a storefront id to its record.
func (s *InMemoryIdentityRepository) GetByLocal(ctx context.Context, family integration.EntityFamily, localID string) (*integration.IdentityRecord, error) {
	s.mu.RLock()
	erpID, ok := s.byLocal[family][localID]
	s.mu.RUnlock()
	if !ok {
		return nil, integration.ErrIdentityNotFound
	}
	return s.Get(ctx, family, erpID)
}

// GetAll enumerates every known ERP id for the family.
func (s *InMemoryIdentityRepository) GetAll(_ context.Context, family integration.EntityFamily) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.records[family]))
	for id := range s.records[family] {
		ids = append(ids, id)
	}
	return ids, nil
}

// Insert upserts a single record.
func (s *InMemoryIdentityRepository) Insert(ctx context.Context, family integration.EntityFamily, record integration.IdentityRecord) error {
	return s.InsertMany(ctx, family, []integration.IdentityRecord{record})
}

// InsertMany upserts a batch under one lock so readers never observe a
// partial batch.
func (s *InMemoryIdentityRepository) InsertMany(_ context.Context, family integration.EntityFamily, records []integration.IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records[family] == nil {
		s.records[family] = make(map[int64]integration.IdentityRecord)
	}
	if s.byLocal[family] == nil {
		s.byLocal[family] = make(map[string]int64)
	}
	for _, record := range records {
		s.records[family][record.ErpID] = record
		if record.LocalID != "" {
			s.byLocal[family][record.LocalID] = record.ErpID
		}
	}
	return nil
}

// Remove invalidates the link for an ERP id.
func (s *InMemoryIdentityRepository) Remove(_ context.Context, family integration.EntityFamily, erpID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.records[family][erpID]; ok {
		delete(s.records[family], erpID)
		if record.LocalID != "" {
			delete(s.byLocal[family], record.LocalID)
		}
	}
	return nil
}

// Length returns the number of links for the family.
func (s *InMemoryIdentityRepository) Length(_ context.Context, family integration.EntityFamily) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records[family])), nil
}

// Diff returns the candidates not yet known for the family.
func (s *InMemoryIdentityRepository) Diff(_ context.Context, family integration.EntityFamily, candidates []int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	missing := make([]int64, 0)
	for _, id := range candidates {
		if _, ok := s.records[family][id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Stale returns known ids absent from current.
func (s *InMemoryIdentityRepository) Stale(_ context.Context, family integration.EntityFamily, current []int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fresh := make(map[int64]struct{}, len(current))
	for _, id := range current {
		fresh[id] = struct{}{}
	}

	stale := make([]int64, 0)
	for id := range s.records[family] {
		if _, ok := fresh[id]; !ok {
			stale = append(stale, id)
		}
	}
	return stale, nil
}

// GetLastSync returns the family's last successful sync time, nil if never.
func (s *InMemoryIdentityRepository) GetLastSync(_ context.Context, family integration.EntityFamily) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.lastSync[family]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// SetLastSync records the family's last successful sync time.
func (s *InMemoryIdentityRepository) SetLastSync(_ context.Context, family integration.EntityFamily, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSync[family] = t.UTC()
	return nil
}

// Ensure InMemoryIdentityRepository implements IdentityRepository
var _ integration.IdentityRepository = (*InMemoryIdentityRepository)(nil)
