package analysis

import (
	"context"
	"sort"
	"sync"

	"github.com/park285/chess-humanmoves/internal/domain"
)

// memrepo keeps history in process when no DATABASE_URL is configured.
// It retains at most capacity records, dropping the oldest.
type memrepo struct {
	mu       sync.RWMutex
	capacity int
	records  []*domain.AnalysisRecord
	byID     map[string]struct{}
}

const defaultMemoryCapacity = 500

func NewMemoryRepository(capacity int) Repository {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &memrepo{capacity: capacity, byID: make(map[string]struct{})}
}

func (m *memrepo) InsertAnalysis(ctx context.Context, rec *domain.AnalysisRecord) error {
	if rec == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[rec.ID]; exists {
		return ErrDuplicateAnalysis
	}
	clone := *rec
	clone.Payload = append([]byte(nil), rec.Payload...)
	m.records = append(m.records, &clone)
	m.byID[rec.ID] = struct{}{}
	if len(m.records) > m.capacity {
		drop := m.records[0]
		m.records = m.records[1:]
		delete(m.byID, drop.ID)
	}
	return nil
}

func (m *memrepo) RecentAnalyses(ctx context.Context, limit int) ([]*domain.AnalysisRecord, error) {
	m.mu.RLock()
	items := make([]*domain.AnalysisRecord, 0, len(m.records))
	for i := len(m.records) - 1; i >= 0; i-- {
		clone := *m.records[i]
		items = append(items, &clone)
	}
	m.mu.RUnlock()

	// newest first; later inserts win ties
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
