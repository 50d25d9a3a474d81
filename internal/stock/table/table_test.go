// internal/stock/table/table_test.go
package table

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/storage"
	"stock-backoffice/internal/models"
	"stock-backoffice/internal/stock/filters"
)

func createTestStore(t *testing.T) (*storage.Store, *storage.MemoryBackend) {
	t.Helper()
	backend := storage.NewMemoryBackend()
	return storage.NewStore(backend, logger.NewTestLogger(t)), backend
}

// ==========================
// Sorting
// ==========================

func TestSorting_ToggleCycle(t *testing.T) {
	store, _ := createTestStore(t)
	s := NewSorting(store, logger.NewTestLogger(t))
	ctx := context.Background()

	assert.Equal(t, SortState{SortBy: []string{"price"}, SortDesc: []bool{false}}, s.Toggle(ctx, "price"))
	assert.Equal(t, SortState{SortBy: []string{"price"}, SortDesc: []bool{true}}, s.Toggle(ctx, "price"))
	assert.Equal(t, SortState{SortBy: []string{}, SortDesc: []bool{}}, s.Toggle(ctx, "price"))
}

func TestSorting_Update(t *testing.T) {
	type click struct {
		column string
		desc   bool
	}
	tests := []struct {
		name   string
		clicks []click
		want   SortState
	}{
		{
			name:   "append new columns",
			clicks: []click{{"price", false}, {"year", true}},
			want:   SortState{SortBy: []string{"price", "year"}, SortDesc: []bool{false, true}},
		},
		{
			name:   "same direction removes",
			clicks: []click{{"price", false}, {"year", true}, {"price", false}},
			want:   SortState{SortBy: []string{"year"}, SortDesc: []bool{true}},
		},
		{
			name:   "different direction flips in place",
			clicks: []click{{"price", false}, {"year", false}, {"price", true}},
			want:   SortState{SortBy: []string{"price", "year"}, SortDesc: []bool{true, false}},
		},
		{
			name:   "fourth column evicts the oldest",
			clicks: []click{{"a", false}, {"b", true}, {"c", false}, {"d", true}},
			want:   SortState{SortBy: []string{"b", "c", "d"}, SortDesc: []bool{true, false, true}},
		},
		{
			name:   "empty column clears",
			clicks: []click{{"a", false}, {"", false}},
			want:   SortState{SortBy: []string{}, SortDesc: []bool{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := createTestStore(t)
			s := NewSorting(store, logger.NewTestLogger(t))
			var got SortState
			for _, c := range tt.clicks {
				got = s.Update(context.Background(), c.column, c.desc)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, s.State())
		})
	}
}

func TestSorting_PerGroupPersistence(t *testing.T) {
	store, backend := createTestStore(t)
	log := logger.NewTestLogger(t)
	ctx := context.Background()

	s := NewSorting(store, log)
	s.LoadGroup(ctx, filters.GroupArchive)
	s.Update(ctx, "price", true)

	restored := NewSorting(store, log)
	restored.LoadGroup(ctx, filters.GroupArchive)
	assert.Equal(t, []string{"price"}, restored.State().SortBy)

	restored.LoadGroup(ctx, filters.GroupActive)
	assert.Empty(t, restored.State().SortBy)

	// legacy shared key: only the first load of a session reads it
	require.NoError(t, backend.Set(ctx, "table-sort", []byte(`{"data":{"sortBy":["year","vin"],"sortDesc":[true]},"timestamp":1}`)))
	restored.LoadGroup(ctx, filters.GroupActive)
	assert.Empty(t, restored.State().SortBy)

	restored.Restore(ctx, filters.GroupActive)
	assert.Equal(t, SortState{SortBy: []string{"year", "vin"}, SortDesc: []bool{true, false}}, restored.State())

	restored.Restore(ctx, filters.GroupArchive)
	assert.Equal(t, []string{"price"}, restored.State().SortBy)
}

func TestSorting_Fields(t *testing.T) {
	store, _ := createTestStore(t)
	s := NewSorting(store, logger.NewTestLogger(t))
	ctx := context.Background()

	s.Update(ctx, "price", true)
	s.Update(ctx, "nope.nested", false)
	s.Update(ctx, "lot_number", false)

	columns, desc := s.Fields()
	require.Len(t, columns, 2)
	assert.Equal(t, []bool{true, false}, desc)
}

// ==========================
// Pagination
// ==========================

func TestPagination_Clamp(t *testing.T) {
	store, _ := createTestStore(t)
	p := NewPagination(store, logger.NewTestLogger(t))
	ctx := context.Background()

	_, err := p.SetItemsPerPage(ctx, 25)
	require.NoError(t, err)
	snap := p.UpdateCount(ctx, 95)
	assert.Equal(t, 4, snap.MaxPage)

	assert.Equal(t, 4, p.SetPage(ctx, 10).Page)
	assert.Equal(t, 1, p.SetPage(ctx, -3).Page)

	p.SetPage(ctx, 4)
	snap = p.UpdateCount(ctx, 30)
	assert.Equal(t, 2, snap.Page)

	snap = p.UpdateCount(ctx, 0)
	assert.Equal(t, 1, snap.Page)
	assert.Equal(t, 1, snap.MaxPage)
}

func TestPagination_ItemsPerPage(t *testing.T) {
	store, _ := createTestStore(t)
	p := NewPagination(store, logger.NewTestLogger(t))
	ctx := context.Background()

	p.UpdateCount(ctx, 500)
	p.SetPage(ctx, 7)

	snap, err := p.SetItemsPerPage(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Page)
	assert.Equal(t, 10, snap.MaxPage)

	_, err = p.SetItemsPerPage(ctx, 33)
	assert.ErrorIs(t, err, ErrInvalidItemsPerPage)
	assert.Equal(t, 50, p.Snapshot().ItemsPerPage)
}

func TestPagination_Persistence(t *testing.T) {
	store, backend := createTestStore(t)
	log := logger.NewTestLogger(t)
	ctx := context.Background()

	p := NewPagination(store, log)
	p.UpdateCount(ctx, 100)
	_, err := p.SetItemsPerPage(ctx, 25)
	require.NoError(t, err)
	p.SetPage(ctx, 3)

	restored := NewPagination(store, log)
	restored.Load(ctx)
	snap := restored.Snapshot()
	assert.Equal(t, 25, snap.ItemsPerPage)
	assert.Equal(t, 3, snap.Page)

	require.NoError(t, backend.Set(ctx, PaginationKey, []byte(`{"data":{"itemsPerPage":13,"page":0},"timestamp":1}`)))
	restored.Load(ctx)
	snap = restored.Snapshot()
	assert.Equal(t, DefaultItemsPerPage, snap.ItemsPerPage)
	assert.Equal(t, 1, snap.Page)
}

// ==========================
// Columns
// ==========================

func TestColumns(t *testing.T) {
	store, _ := createTestStore(t)
	log := logger.NewTestLogger(t)
	ctx := context.Background()

	c := NewColumns(store, log)
	total := len(c.Headers())
	assert.Len(t, c.Visible(), total)

	assert.True(t, c.SetVisibility(ctx, "vin", false))
	assert.False(t, c.SetVisibility(ctx, "unknown", false))
	c.Update(ctx, []models.Header{{Value: "price", Visible: false}})
	assert.Len(t, c.Visible(), total-2)

	restored := NewColumns(store, log)
	restored.Load(ctx)
	assert.Len(t, restored.Visible(), total-2)

	restored.Reset(ctx)
	assert.Len(t, restored.Visible(), total)
	again := NewColumns(store, log)
	again.Load(ctx)
	assert.Len(t, again.Visible(), total)
}

func TestDefaultHeaders_IsACopy(t *testing.T) {
	h := DefaultHeaders()
	h[0].Visible = false
	assert.True(t, DefaultHeaders()[0].Visible)
}

// ==========================
// Tabs
// ==========================

func TestTabs(t *testing.T) {
	store, backend := createTestStore(t)
	log := logger.NewTestLogger(t)
	ctx := context.Background()

	tabs := NewTabs(store, log)
	tabs.SetTabs([]models.Tab{{Name: "Active", Label: "Активные", Count: 10}, {Name: "Archive", Label: "Архив", Count: 3}})

	assert.Equal(t, filters.GroupArchive, tabs.SetByName(ctx, "ARCHIVE"))
	assert.Equal(t, 1, tabs.Snapshot().Active)
	assert.Equal(t, filters.GroupActive, tabs.SetByName(ctx, "whatever"))
	assert.Equal(t, 0, tabs.Snapshot().Active)

	tabs.SetTabs(nil)
	assert.Len(t, tabs.Snapshot().Tabs, 2)

	tabs.SetByName(ctx, "archive")
	restored := NewTabs(store, log)
	assert.Equal(t, filters.GroupArchive, restored.Load(ctx))

	require.NoError(t, backend.Set(ctx, ActiveTabKey, []byte(`{"data":"Archive","timestamp":1}`)))
	assert.Equal(t, filters.GroupArchive, NewTabs(store, log).Load(ctx))

	require.NoError(t, backend.Set(ctx, ActiveTabKey, []byte(`{"data":{"data":"Active","timestamp":2},"timestamp":2}`)))
	assert.Equal(t, filters.GroupActive, NewTabs(store, log).Load(ctx))
}
