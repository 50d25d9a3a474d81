// internal/stock/table/pagination.go
package table

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/storage"
)

const (
	PaginationKey       = "table-pagination"
	DefaultItemsPerPage = 10
)

// ItemsPerPageOptions are the allowed page sizes.
var ItemsPerPageOptions = []int{10, 25, 50, 75, 100}

var ErrInvalidItemsPerPage = errors.New("INVALID_ITEMS_PER_PAGE")

// PageState is the persisted pagination.
type PageState struct {
	ItemsPerPage int `json:"itemsPerPage"`
	Page         int `json:"page"`
}

type PageSnapshot struct {
	Page         int
	ItemsPerPage int
	Count        int
	MaxPage      int
}

func validItemsPerPage(n int) bool {
	for _, v := range ItemsPerPageOptions {
		if v == n {
			return true
		}
	}
	return false
}

// MaxPage is ceil(count/itemsPerPage), at least 1.
func MaxPage(count, itemsPerPage int) int {
	if itemsPerPage <= 0 || count <= 0 {
		return 1
	}
	return (count + itemsPerPage - 1) / itemsPerPage
}

// Pagination keeps page within [1, MaxPage] whenever count or page size
// change.
type Pagination struct {
	store  *storage.Store
	logger logger.Logger

	mu           sync.Mutex
	page         int
	itemsPerPage int
	count        int
}

func NewPagination(store *storage.Store, log logger.Logger) *Pagination {
	return &Pagination{
		store:        store,
		logger:       logger.ForComponent(log, "table.pagination"),
		page:         1,
		itemsPerPage: DefaultItemsPerPage,
	}
}

// Load restores the saved page size and page.
func (p *Pagination) Load(ctx context.Context) {
	var saved PageState
	if !p.store.Load(ctx, PaginationKey, &saved) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.itemsPerPage = DefaultItemsPerPage
	if validItemsPerPage(saved.ItemsPerPage) {
		p.itemsPerPage = saved.ItemsPerPage
	}
	p.page = 1
	if saved.Page > 0 {
		p.page = saved.Page
	}
}

func (p *Pagination) Snapshot() PageSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Pagination) snapshotLocked() PageSnapshot {
	return PageSnapshot{
		Page:         p.page,
		ItemsPerPage: p.itemsPerPage,
		Count:        p.count,
		MaxPage:      MaxPage(p.count, p.itemsPerPage),
	}
}

// SetPage moves to page, clamped to [1, MaxPage].
func (p *Pagination) SetPage(ctx context.Context, page int) PageSnapshot {
	p.mu.Lock()
	maxPage := MaxPage(p.count, p.itemsPerPage)
	switch {
	case page < 1:
		page = 1
	case page > maxPage:
		page = maxPage
	}
	p.page = page
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.save(ctx, snap)
	return snap
}

// SetItemsPerPage changes the page size and returns to page 1.
func (p *Pagination) SetItemsPerPage(ctx context.Context, n int) (PageSnapshot, error) {
	if !validItemsPerPage(n) {
		return p.Snapshot(), fmt.Errorf("%w: %d", ErrInvalidItemsPerPage, n)
	}

	p.mu.Lock()
	p.itemsPerPage = n
	p.page = 1
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.save(ctx, snap)
	return snap, nil
}

func (p *Pagination) ResetToFirstPage(ctx context.Context) {
	p.mu.Lock()
	p.page = 1
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.save(ctx, snap)
}

// UpdateCount records the server total and pulls the page back inside
// the new range.
func (p *Pagination) UpdateCount(ctx context.Context, count int) PageSnapshot {
	if count < 0 {
		count = 0
	}

	p.mu.Lock()
	p.count = count
	clamped := false
	if maxPage := MaxPage(count, p.itemsPerPage); p.page > maxPage {
		p.page = maxPage
		clamped = true
	}
	snap := p.snapshotLocked()
	p.mu.Unlock()

	if clamped {
		p.save(ctx, snap)
	}
	return snap
}

func (p *Pagination) save(ctx context.Context, snap PageSnapshot) {
	state := PageState{ItemsPerPage: snap.ItemsPerPage, Page: snap.Page}
	if err := p.store.Save(ctx, PaginationKey, state); err != nil {
		p.logger.Warn("failed to save pagination", map[string]interface{}{"error": err.Error()})
	}
}
