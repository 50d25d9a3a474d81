// internal/stock/filters/repository.go
package filters

import (
	"context"

	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/storage"
)

const keyPrefix = "vehicle-filters-"

// StorageKey is the persisted key of a group's filters.
func StorageKey(group StatusGroup) string {
	return keyPrefix + group.Key()
}

// Repository persists one Filters value per status group.
type Repository struct {
	store  *storage.Store
	logger logger.Logger
}

func NewRepository(store *storage.Store, log logger.Logger) *Repository {
	return &Repository{store: store, logger: logger.ForComponent(log, "filter-repository")}
}

// Load returns the saved filters of group, or empty filters when nothing
// usable is stored.
func (r *Repository) Load(ctx context.Context, group StatusGroup) Filters {
	var f Filters
	if !r.store.Load(ctx, StorageKey(group), &f) {
		return Empty()
	}
	f.Normalize()
	return f
}

func (r *Repository) Save(ctx context.Context, group StatusGroup, f Filters) error {
	f = f.Clone()
	f.Normalize()
	return r.store.Save(ctx, StorageKey(group), f)
}

func (r *Repository) Clear(ctx context.Context, group StatusGroup) error {
	return r.store.Clear(ctx, StorageKey(group))
}

// HasActiveFiltersInGroup reports whether the saved filters of group
// constrain the listing.
func (r *Repository) HasActiveFiltersInGroup(ctx context.Context, group StatusGroup) bool {
	_, ok := r.ActiveFiltersCount(ctx, group)
	return ok
}

// ActiveFiltersCount counts the saved filters of group. The second result
// is false when nothing is saved or nothing is selected.
func (r *Repository) ActiveFiltersCount(ctx context.Context, group StatusGroup) (int, bool) {
	var f Filters
	if !r.store.Load(ctx, StorageKey(group), &f) {
		return 0, false
	}
	n := f.ActiveCount()
	if n == 0 {
		return 0, false
	}
	r.logger.Debug("active filters counted", map[string]interface{}{
		"group": string(group),
		"count": n,
	})
	return n, true
}
