package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-metadata/pkg/formmeta"
)

// Repository implements formmeta.Repository using in-memory storage.
// Ids come from a monotonic sequence, so the id order is the creation
// order and listings sorted by id descending are newest-first.
type Repository struct {
	mu       sync.RWMutex
	nextID   int64
	metadata map[int64]*formmeta.MetaData
	byForm   map[uuid.UUID][]int64
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		metadata: make(map[int64]*formmeta.MetaData),
		byForm:   make(map[uuid.UUID][]int64),
	}
}

func (r *Repository) CreateMetaData(ctx context.Context, md *formmeta.MetaData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := time.Now()
	md.ID = r.nextID
	md.CreatedAt = now
	md.UpdatedAt = now

	// Store a copy to avoid external modifications
	mdCopy := *md
	r.metadata[md.ID] = &mdCopy
	r.byForm[md.FormID] = append(r.byForm[md.FormID], md.ID)

	return nil
}

func (r *Repository) UpdateMetaData(ctx context.Context, md *formmeta.MetaData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.metadata[md.ID]; !exists {
		return formmeta.ErrMetaDataNotFound
	}

	md.UpdatedAt = time.Now()
	mdCopy := *md
	r.metadata[md.ID] = &mdCopy

	return nil
}

func (r *Repository) GetMetaData(ctx context.Context, id int64) (*formmeta.MetaData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	md, exists := r.metadata[id]
	if !exists {
		return nil, formmeta.ErrMetaDataNotFound
	}

	mdCopy := *md
	return &mdCopy, nil
}

func (r *Repository) ListMetaDataByFormAndKind(ctx context.Context, formID uuid.UUID, kind formmeta.Kind) ([]*formmeta.MetaData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*formmeta.MetaData
	for _, id := range r.byForm[formID] {
		if md, exists := r.metadata[id]; exists && md.Kind == kind {
			mdCopy := *md
			result = append(result, &mdCopy)
		}
	}

	sortByIDDesc(result)
	return result, nil
}

func (r *Repository) ListMetaDataByForm(ctx context.Context, formID uuid.UUID) ([]*formmeta.MetaData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*formmeta.MetaData
	for _, id := range r.byForm[formID] {
		if md, exists := r.metadata[id]; exists {
			mdCopy := *md
			result = append(result, &mdCopy)
		}
	}

	sortByIDDesc(result)
	return result, nil
}

func (r *Repository) DeleteMetaData(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	md, exists := r.metadata[id]
	if !exists {
		return formmeta.ErrMetaDataNotFound
	}

	delete(r.metadata, id)
	ids := r.byForm[md.FormID]
	for i, candidate := range ids {
		if candidate == id {
			r.byForm[md.FormID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}

	return nil
}

// Newest first; higher id wins when duplicates exist.
func sortByIDDesc(mds []*formmeta.MetaData) {
	sort.Slice(mds, func(i, j int) bool {
		return mds[i].ID > mds[j].ID
	})
}
