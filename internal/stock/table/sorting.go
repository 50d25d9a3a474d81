// internal/stock/table/sorting.go
package table

import (
	"context"
	"sync"

	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/storage"
	"stock-backoffice/internal/stock/filters"
)

// MaxSortColumns bounds the sort order; older columns are evicted first.
const MaxSortColumns = 3

const (
	sortKeyPrefix = "table-sort-"
	legacySortKey = "table-sort"
)

// SortKey is the persisted key of a group's sort order.
func SortKey(group filters.StatusGroup) string {
	return sortKeyPrefix + group.Key()
}

// SortState is the persisted sort order. SortBy and SortDesc are parallel.
type SortState struct {
	SortBy   []string `json:"sortBy"`
	SortDesc []bool   `json:"sortDesc"`
}

func (s SortState) clone() SortState {
	return SortState{
		SortBy:   append([]string{}, s.SortBy...),
		SortDesc: append([]bool{}, s.SortDesc...),
	}
}

func (s SortState) index(column string) int {
	for i, c := range s.SortBy {
		if c == column {
			return i
		}
	}
	return -1
}

func (s *SortState) remove(i int) {
	s.SortBy = append(s.SortBy[:i], s.SortBy[i+1:]...)
	s.SortDesc = append(s.SortDesc[:i], s.SortDesc[i+1:]...)
}

// Sorting is the multi-column sort order of the current status group.
type Sorting struct {
	store  *storage.Store
	logger logger.Logger

	mu    sync.Mutex
	group filters.StatusGroup
	state SortState
}

func NewSorting(store *storage.Store, log logger.Logger) *Sorting {
	return &Sorting{
		store:  store,
		logger: logger.ForComponent(log, "table.sorting"),
		group:  filters.GroupActive,
		state:  SortState{SortBy: []string{}, SortDesc: []bool{}},
	}
}

// LoadGroup switches to group and restores its saved order. A group
// without one starts unsorted.
func (s *Sorting) LoadGroup(ctx context.Context, group filters.StatusGroup) {
	s.load(ctx, group, false)
}

// Restore is the first load of a session: a group without a saved order
// falls back to the legacy shared key.
func (s *Sorting) Restore(ctx context.Context, group filters.StatusGroup) {
	s.load(ctx, group, true)
}

func (s *Sorting) load(ctx context.Context, group filters.StatusGroup, legacy bool) {
	var saved SortState
	ok := s.store.Load(ctx, SortKey(group), &saved)
	if !ok && legacy {
		ok = s.store.Load(ctx, legacySortKey, &saved)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.group = group
	s.state = SortState{SortBy: []string{}, SortDesc: []bool{}}
	if ok {
		s.state = normalizeSort(saved)
	}
}

// normalizeSort pads or trims directions to the column count.
func normalizeSort(s SortState) SortState {
	out := SortState{SortBy: []string{}, SortDesc: []bool{}}
	for i, col := range s.SortBy {
		if col == "" {
			continue
		}
		out.SortBy = append(out.SortBy, col)
		out.SortDesc = append(out.SortDesc, i < len(s.SortDesc) && s.SortDesc[i])
	}
	if n := len(out.SortBy); n > MaxSortColumns {
		out.SortBy = out.SortBy[n-MaxSortColumns:]
		out.SortDesc = out.SortDesc[n-MaxSortColumns:]
	}
	return out
}

// Update applies a header click reporting (column, desc). A new column is
// appended; the same direction again removes it; a different direction
// flips it. An empty column clears the order.
func (s *Sorting) Update(ctx context.Context, column string, desc bool) SortState {
	s.mu.Lock()
	if column == "" {
		s.state = SortState{SortBy: []string{}, SortDesc: []bool{}}
	} else {
		switch i := s.state.index(column); {
		case i < 0:
			s.state.SortBy = append(s.state.SortBy, column)
			s.state.SortDesc = append(s.state.SortDesc, desc)
		case s.state.SortDesc[i] != desc:
			s.state.SortDesc[i] = desc
		default:
			s.state.remove(i)
		}
		s.state = normalizeSort(s.state)
	}
	out := s.state.clone()
	s.mu.Unlock()

	s.save(ctx, out)
	return out
}

// Toggle cycles column through absent, ascending and descending.
func (s *Sorting) Toggle(ctx context.Context, column string) SortState {
	s.mu.Lock()
	present := s.state.index(column) >= 0
	s.mu.Unlock()
	// present ascending flips, present descending is removed
	return s.Update(ctx, column, present)
}

func (s *Sorting) Reset(ctx context.Context) {
	s.Update(ctx, "", false)
}

func (s *Sorting) State() SortState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Fields returns the order translated to backend identifiers.
func (s *Sorting) Fields() ([]string, []bool) {
	state := s.State()
	return filters.PrepareSortFields(state.SortBy, state.SortDesc)
}

func (s *Sorting) save(ctx context.Context, state SortState) {
	s.mu.Lock()
	key := SortKey(s.group)
	s.mu.Unlock()

	if err := s.store.Save(ctx, key, state); err != nil {
		s.logger.Warn("failed to save sort settings", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
