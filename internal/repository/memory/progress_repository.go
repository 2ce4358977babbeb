package memory

import (
	"time"

	"insightai-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ProgressRepository keeps snapshots of in-flight runs. Entries expire on
// their own so abandoned runs do not pile up.
type ProgressRepository struct {
	cache *cache.Cache
}

func NewProgressRepository() *ProgressRepository {
	// Default expiration of 1 hour, expired items purged every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &ProgressRepository{
		cache: c,
	}
}

// Save stores a copy so later mutations by the caller are not visible.
func (r *ProgressRepository) Save(p *entity.RunProgress) {
	snapshot := *p
	snapshot.Steps = append([]string(nil), p.Steps...)
	r.cache.Set(p.Id.String(), &snapshot, cache.DefaultExpiration)
}

func (r *ProgressRepository) Get(id uuid.UUID) (*entity.RunProgress, bool) {
	if x, found := r.cache.Get(id.String()); found {
		return x.(*entity.RunProgress), true
	}
	return nil, false
}

// Finish marks a run done and shortens its lifetime; history takes over.
func (r *ProgressRepository) Finish(id uuid.UUID) {
	if p, ok := r.Get(id); ok {
		done := *p
		done.Done = true
		r.cache.Set(id.String(), &done, 5*time.Minute)
	}
}

func (r *ProgressRepository) Delete(id uuid.UUID) {
	r.cache.Delete(id.String())
}
