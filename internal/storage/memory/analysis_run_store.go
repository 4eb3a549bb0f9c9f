package memory

import (
	"context"
	"sort"
	"sync"

	"trade-edge-lab/internal/domain"
	"trade-edge-lab/internal/storage"
)

// AnalysisRunStore is an in-memory implementation of storage.AnalysisRunStore.
type AnalysisRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AnalysisRun // keyed by run_id
}

// NewAnalysisRunStore creates a new in-memory analysis run store.
func NewAnalysisRunStore() *AnalysisRunStore {
	return &AnalysisRunStore{
		data: make(map[string]*domain.AnalysisRun),
	}
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *AnalysisRunStore) Insert(_ context.Context, r *domain.AnalysisRun) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.RunID] = cloneRun(r)
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *AnalysisRunStore) GetByID(_ context.Context, runID string) (*domain.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return cloneRun(r), nil
}

// GetAll retrieves all runs ordered by created_at ASC, run_id ASC.
func (s *AnalysisRunStore) GetAll(_ context.Context) ([]*domain.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.AnalysisRun, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, cloneRun(r))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAtMs != result[j].CreatedAtMs {
			return result[i].CreatedAtMs < result[j].CreatedAtMs
		}
		return result[i].RunID < result[j].RunID
	})

	return result, nil
}

var _ storage.AnalysisRunStore = (*AnalysisRunStore)(nil)

// cloneRun copies a run so callers never share its filter slice or pointers.
func cloneRun(r *domain.AnalysisRun) *domain.AnalysisRun {
	c := *r
	if r.FilterSymbols != nil {
		c.FilterSymbols = append([]string(nil), r.FilterSymbols...)
	}
	if r.FilterFromMs != nil {
		v := *r.FilterFromMs
		c.FilterFromMs = &v
	}
	if r.FilterToMs != nil {
		v := *r.FilterToMs
		c.FilterToMs = &v
	}
	return &c
}
