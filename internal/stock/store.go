// internal/stock/store.go
package stock

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "stock-backoffice/internal/common/errors"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/metrics"
	"stock-backoffice/internal/common/observability"
	"stock-backoffice/internal/common/observer"
	"stock-backoffice/internal/common/scheduler"
	"stock-backoffice/internal/models"
	propertylisting "stock-backoffice/internal/services/property-listing"
	stockexport "stock-backoffice/internal/services/stock-export"
	"stock-backoffice/internal/stock/access"
	"stock-backoffice/internal/stock/facets"
	"stock-backoffice/internal/stock/filters"
	"stock-backoffice/internal/stock/table"
)

// State is the lifecycle of the listing store.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
)

var (
	ErrNoExport = errors.New("EXPORT_UNAVAILABLE")
	ErrNoImport = errors.New("IMPORT_UNAVAILABLE")
)

// Lister serves listing pages and tab totals.
type Lister interface {
	Fetch(ctx context.Context, q propertylisting.Query) (*models.ListingResponse, error)
	AbortPending() int
	Aggregate(ctx context.Context) []models.Tab
}

// Searcher answers text queries, usually from a cache in front of a Lister.
type Searcher interface {
	Search(ctx context.Context, q propertylisting.Query) (*models.ListingResponse, error)
	Invalidate()
}

type Exporter interface {
	Export(ctx context.Context, q propertylisting.Query) (*stockexport.Workbook, error)
	WriteLocal(items []models.Item, headers []models.Header) (*stockexport.Workbook, error)
	Save(wb *stockexport.Workbook) (string, error)
}

// Importer uploads valuation files.
type Importer interface {
	ImportFile(ctx context.Context, path string) (*models.PriceImportResult, error)
}

// Guard checks that the signed-in user may perform an action.
type Guard interface {
	Require(ctx context.Context, permission string) error
}

// Snapshot is the observable state of the listing.
type Snapshot struct {
	State         State
	Loading       bool
	Searching     bool
	Group         filters.StatusGroup
	ActiveTab     int
	Tabs          []models.Tab
	Items         []models.Item
	Page          table.PageSnapshot
	Sort          table.SortState
	Filters       filters.Filters
	ActiveFilters int
	SearchText    string
	LastImport    *models.PriceImportResult
}

type Dependencies struct {
	Listing    Lister
	Search     Searcher
	Export     Exporter
	Import     Importer
	Access     Guard
	Cascade    *facets.Cascade
	Additional *facets.Additional
	Filters    *filters.Repository
	Sorting    *table.Sorting
	Pagination *table.Pagination
	Columns    *table.Columns
	Tabs       *table.Tabs
	Debouncer  *scheduler.Debouncer
	Errors     *apperrors.Handler
	Telemetry  *observability.Observability
	Logger     logger.Logger
	Now        func() time.Time
}

// Store drives the stock listing: tabs, pagination, sorting, filters and
// search all end in one listing fetch whose result replaces the table.
// Only the most recently started fetch may write the table.
type Store struct {
	listing    Lister
	search     Searcher
	export     Exporter
	importer   Importer
	access     Guard
	cascade    *facets.Cascade
	additional *facets.Additional
	repo       *filters.Repository
	sorting    *table.Sorting
	pagination *table.Pagination
	columns    *table.Columns
	tabs       *table.Tabs
	debouncer  *scheduler.Debouncer
	errors     *apperrors.Handler
	telemetry  *observability.Observability
	logger     logger.Logger
	now        func() time.Time
	subject    *observer.Subject[Snapshot]

	// commitMu orders table writes, including the pagination save they
	// trigger, without holding mu across storage calls.
	commitMu sync.Mutex

	mu         sync.Mutex
	state      State
	loading    bool
	searching  bool
	items      []models.Item
	count      int
	listCount  int
	countKnown bool
	filters    filters.Filters
	searchText string
	lastImport *models.PriceImportResult
	generation uint64
}

func NewStore(deps Dependencies) *Store {
	log := logger.ForComponent(deps.Logger, "stock")
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	debouncer := deps.Debouncer
	if debouncer == nil {
		debouncer = scheduler.NewDebouncer(500*time.Millisecond, 1500*time.Millisecond)
	}
	errs := deps.Errors
	if errs == nil {
		errs = apperrors.NewHandler(log, nil)
	}
	return &Store{
		listing:    deps.Listing,
		search:     deps.Search,
		export:     deps.Export,
		importer:   deps.Import,
		access:     deps.Access,
		cascade:    deps.Cascade,
		additional: deps.Additional,
		repo:       deps.Filters,
		sorting:    deps.Sorting,
		pagination: deps.Pagination,
		columns:    deps.Columns,
		tabs:       deps.Tabs,
		debouncer:  debouncer,
		errors:     errs,
		telemetry:  deps.Telemetry,
		logger:     log,
		now:        now,
		subject:    observer.NewSubject[Snapshot](),
		state:      StateUninitialized,
		items:      []models.Item{},
		filters:    filters.Empty(),
	}
}

func (s *Store) Subscribe(fn func(Snapshot)) func() {
	return s.subject.Subscribe(fn)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		State:      s.state,
		Loading:    s.loading,
		Searching:  s.searching,
		Items:      append([]models.Item(nil), s.items...),
		Filters:    s.filters.Clone(),
		SearchText: s.searchText,
		LastImport: s.lastImport,
	}
	s.mu.Unlock()

	tabs := s.tabs.Snapshot()
	snap.Group = tabs.Group
	snap.ActiveTab = tabs.Active
	snap.Tabs = tabs.Tabs
	snap.Page = s.pagination.Snapshot()
	snap.Sort = s.sorting.State()
	snap.ActiveFilters = snap.Filters.ActiveCount()
	return snap
}

func (s *Store) publish() {
	s.subject.Notify(s.Snapshot())
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) ready() bool {
	return s.State() == StateReady
}

// Initialize restores the persisted table settings and loads the first
// page. Calls after the first are no-ops.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return
	}
	s.state = StateInitializing
	s.mu.Unlock()
	s.publish()

	s.columns.Load(ctx)
	s.pagination.Load(ctx)
	group := s.tabs.Load(ctx)
	s.sorting.Restore(ctx, group)
	s.tabs.SetTabs(s.listing.Aggregate(ctx))

	f := s.repo.Load(ctx, group)
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
	if s.additional != nil {
		s.additional.Sync(f)
	}

	s.fetch(ctx, "initialize")

	s.mu.Lock()
	s.state = StateReady
	s.mu.Unlock()
	s.logger.Info("stock store initialized", map[string]interface{}{"group": string(group)})
	s.publish()
}

// HandleTabChange switches the status group and shows page 1 of it under
// the group's own filters and sort.
func (s *Store) HandleTabChange(ctx context.Context, tab string) {
	group := s.tabs.SetByName(ctx, tab)
	s.listing.AbortPending()
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
	s.clearStoreData(ctx)

	f := s.repo.Load(ctx, group)
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
	if s.additional != nil {
		s.additional.Sync(f)
	}
	s.sorting.LoadGroup(ctx, group)
	s.pagination.ResetToFirstPage(ctx)

	s.fetch(ctx, "tab-change")
}

func (s *Store) HandlePageChange(ctx context.Context, page int) {
	if !s.ready() {
		return
	}
	s.pagination.SetPage(ctx, page)
	s.fetch(ctx, "page-change")
}

// HandleItemsPerPageChange rejects sizes outside table.ItemsPerPageOptions.
func (s *Store) HandleItemsPerPageChange(ctx context.Context, n int) error {
	if !s.ready() {
		return nil
	}
	if _, err := s.pagination.SetItemsPerPage(ctx, n); err != nil {
		return err
	}
	s.fetch(ctx, "items-per-page-change")
	return nil
}

// HandleSortChange sets the direction of column, or clears the sort when
// column is empty, and returns to page 1.
func (s *Store) HandleSortChange(ctx context.Context, column string, desc bool) {
	if !s.ready() {
		return
	}
	s.sorting.Update(ctx, column, desc)
	s.pagination.ResetToFirstPage(ctx)
	s.fetch(ctx, "sort-change")
}

// ToggleSort advances column through ascending, descending and off.
func (s *Store) ToggleSort(ctx context.Context, column string) {
	if !s.ready() {
		return
	}
	s.sorting.Toggle(ctx, column)
	s.pagination.ResetToFirstPage(ctx)
	s.fetch(ctx, "sort-change")
}

// ApplyFilters validates the numeric ranges of f and, when none is out of
// bounds, saves f for the current group and loads page 1. The report is
// returned in both cases so warnings can be shown.
func (s *Store) ApplyFilters(ctx context.Context, f filters.Filters) (filters.RangeReport, error) {
	report := filters.ValidateRanges(f, s.now())
	if !report.Valid() {
		return report, apperrors.NewValidationFailedError("filter ranges out of bounds", report.Fields())
	}
	if !s.ready() {
		return report, nil
	}

	f = f.Clone()
	f.Normalize()
	group := s.tabs.Group()
	if err := s.repo.Save(ctx, group, f); err != nil {
		s.errors.Handle(ctx, "apply-filters", err, false)
	}

	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
	if s.additional != nil {
		s.additional.Sync(f)
	}
	s.pagination.ResetToFirstPage(ctx)

	s.fetch(ctx, "apply-filters")
	return report, nil
}

// ResetFilters drops the current group's saved filters, reloads page 1 and
// resets the filter panels.
func (s *Store) ResetFilters(ctx context.Context) {
	if !s.ready() {
		return
	}

	if err := s.repo.Clear(ctx, s.tabs.Group()); err != nil {
		s.errors.Handle(ctx, "reset-filters", err, false)
	}
	s.mu.Lock()
	s.filters = filters.Empty()
	s.mu.Unlock()
	s.pagination.ResetToFirstPage(ctx)

	s.fetch(ctx, "reset-filters")

	if s.cascade != nil {
		s.cascade.Reset(ctx)
	}
	if s.additional != nil {
		s.additional.Reset()
	}
}

// OpenFilters prepares the filter panels for the current group and filters.
func (s *Store) OpenFilters(ctx context.Context) {
	group := s.tabs.Group()
	s.mu.Lock()
	f := s.filters.Clone()
	s.mu.Unlock()

	if s.cascade != nil {
		s.cascade.LoadStatuses(ctx, group)
		s.cascade.InitializeFromFilters(ctx, f)
	}
	if s.additional != nil {
		s.additional.Load(ctx)
		s.additional.Sync(f)
	}
}

// OnSearchInput records the search text and schedules the search. Bursts
// of input settle into one search.
func (s *Store) OnSearchInput(ctx context.Context, value string) {
	s.mu.Lock()
	s.searchText = value
	s.searching = true
	s.mu.Unlock()
	s.publish()

	base := context.WithoutCancel(ctx)
	s.debouncer.Trigger(func() { s.runSearch(base, value) })
}

// FlushSearch runs a pending search now. It reports whether one ran.
func (s *Store) FlushSearch() bool {
	return s.debouncer.Flush()
}

// runSearch loads page 1 for text together with the tab totals.
func (s *Store) runSearch(ctx context.Context, text string) {
	s.pagination.ResetToFirstPage(ctx)

	var (
		wg   sync.WaitGroup
		tabs []models.Tab
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		tabs = s.listing.Aggregate(ctx)
	}()

	s.fetch(ctx, "search")
	wg.Wait()

	if len(tabs) > 0 {
		s.tabs.SetTabs(tabs)
	}

	s.mu.Lock()
	if s.searchText == text {
		s.searching = false
	}
	s.mu.Unlock()
	s.publish()
}

// ResetSearch drops any pending search, clears the text and reloads.
func (s *Store) ResetSearch(ctx context.Context) {
	s.debouncer.Cancel()
	s.mu.Lock()
	s.searchText = ""
	s.searching = false
	s.mu.Unlock()

	s.fetch(ctx, "reset-search")
}

// Refresh reloads the current page.
func (s *Store) Refresh(ctx context.Context) {
	if !s.ready() {
		return
	}
	s.fetch(ctx, "refresh")
}

// Export downloads the workbook of the current page. When the backend
// export fails the visible columns of the loaded page are written locally
// instead. The user needs the export permission.
func (s *Store) Export(ctx context.Context) (string, error) {
	if s.access != nil {
		if err := s.access.Require(ctx, access.PermissionExport); err != nil {
			return "", s.errors.Handle(ctx, "export", err, true)
		}
	}
	if s.export == nil {
		return "", ErrNoExport
	}
	q, _ := s.query(false)

	wb, err := s.export.Export(ctx, q)
	if err != nil {
		s.errors.Handle(ctx, "export", err, false)
		s.mu.Lock()
		items := append([]models.Item(nil), s.items...)
		s.mu.Unlock()

		wb, err = s.export.WriteLocal(items, s.columns.Visible())
		if err != nil {
			return "", s.errors.Handle(ctx, "export-local", err, true)
		}
	}

	path, err := s.export.Save(wb)
	if err != nil {
		return "", s.errors.Handle(ctx, "export-save", err, true)
	}
	return path, nil
}

// ImportPrices uploads a valuation file. A failed upload is kept as a
// result with one failed row and also returned.
func (s *Store) ImportPrices(ctx context.Context, path string) (*models.PriceImportResult, error) {
	if s.importer == nil {
		return nil, ErrNoImport
	}

	result, err := s.importer.ImportFile(ctx, path)
	if err != nil {
		s.errors.Handle(ctx, "price-import", err, true)
		result = models.FailedImport(err.Error())
	}

	s.mu.Lock()
	s.lastImport = result
	s.mu.Unlock()
	s.publish()
	return result, err
}

// CloseImport dismisses the last import result. When that import applied
// any row the current page is reloaded.
func (s *Store) CloseImport(ctx context.Context) {
	s.mu.Lock()
	result := s.lastImport
	s.lastImport = nil
	s.mu.Unlock()

	if result.HasChanges() {
		s.Refresh(ctx)
		return
	}
	s.publish()
}

// query builds the listing query from the current state. With next set it
// also starts a new fetch generation.
func (s *Store) query(next bool) (propertylisting.Query, uint64) {
	group := s.tabs.Group()
	page := s.pagination.Snapshot()
	sort := s.sorting.State()

	s.mu.Lock()
	defer s.mu.Unlock()
	if next {
		s.generation++
		s.loading = true
	}
	return propertylisting.Query{
		Filter:   filters.CreateServerFilters(s.filters, s.searchText, group),
		Page:     page.Page,
		PerPage:  page.ItemsPerPage,
		Group:    group,
		SortBy:   sort.SortBy,
		SortDesc: sort.SortDesc,
	}, s.generation
}

// fetch loads the page described by the current state and writes it to the
// table unless a newer fetch has started meanwhile. Failures empty the
// table and are not returned. A fetch that brought no data leaves the
// table, its count and the page as they were.
func (s *Store) fetch(ctx context.Context, op string) {
	q, gen := s.query(true)
	s.publish()

	group := string(q.Group)
	ctx, span := s.telemetry.StartSpan(ctx, "stock."+op,
		attribute.String("group", group),
		attribute.Int("page", q.Page),
		attribute.Int("perPage", q.PerPage),
	)
	defer span.End()

	start := s.now()
	var (
		resp *models.ListingResponse
		err  error
	)
	searched := q.Filter.Query != nil && s.search != nil
	if searched {
		resp, err = s.search.Search(ctx, q)
	} else {
		resp, err = s.listing.Fetch(ctx, q)
	}
	s.telemetry.RecordFetchDuration(ctx, s.now().Sub(start), group)

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	stale := gen != s.generation
	if !stale {
		s.loading = false
	}
	s.mu.Unlock()

	if stale {
		metrics.ListingFetches.WithLabelValues(group, "stale").Inc()
		s.telemetry.RecordFetch(ctx, group, "stale")
		s.logger.Debug("discarding superseded fetch", map[string]interface{}{"operation": op, "generation": gen})
		return
	}

	if err != nil {
		span.RecordError(err)
		metrics.ListingFetches.WithLabelValues(group, "error").Inc()
		s.telemetry.RecordFetch(ctx, group, "error")
		s.errors.Handle(ctx, op, err, false)
		s.clearStoreData(ctx)
		return
	}

	if resp == nil {
		metrics.ListingFetches.WithLabelValues(group, "empty").Inc()
		s.telemetry.RecordFetch(ctx, group, "empty")
		s.logger.Debug("fetch brought no data", map[string]interface{}{"operation": op})
		s.publish()
		return
	}

	metrics.ListingFetches.WithLabelValues(group, "ok").Inc()
	s.telemetry.RecordFetch(ctx, group, "ok")
	s.updateStoreData(ctx, resp, searched)
}

// updateStoreData replaces the table with resp. A listing total that moved
// since the previous listing fetch means the backend data changed, so
// cached searches are dropped. Search totals never count as drift.
func (s *Store) updateStoreData(ctx context.Context, resp *models.ListingResponse, searched bool) {
	items := resp.Items
	if items == nil {
		items = []models.Item{}
	}
	count := resp.Count

	s.mu.Lock()
	drift := false
	if !searched {
		drift = s.countKnown && s.listCount != count
		s.listCount = count
		s.countKnown = true
	}
	s.items = items
	s.count = count
	s.mu.Unlock()

	if drift && s.search != nil {
		s.search.Invalidate()
	}
	s.pagination.UpdateCount(ctx, count)
	s.publish()
}

func (s *Store) clearStoreData(ctx context.Context) {
	s.mu.Lock()
	s.items = []models.Item{}
	s.count = 0
	s.mu.Unlock()

	s.pagination.UpdateCount(ctx, 0)
	s.publish()
}
