// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-backoffice/internal/common/auth"
	apperrors "stock-backoffice/internal/common/errors"
	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/observability"
	"stock-backoffice/internal/common/scheduler"
	"stock-backoffice/internal/common/storage"
	"stock-backoffice/internal/common/validation"
	"stock-backoffice/internal/feed"
	"stock-backoffice/internal/models"
	activityfeed "stock-backoffice/internal/services/activity-feed"
	massedit "stock-backoffice/internal/services/mass-edit"
	"stock-backoffice/internal/services/permissions"
	priceimport "stock-backoffice/internal/services/price-import"
	propertylisting "stock-backoffice/internal/services/property-listing"
	referencedata "stock-backoffice/internal/services/reference-data"
	"stock-backoffice/internal/stock"
	"stock-backoffice/internal/stock/access"
	"stock-backoffice/internal/stock/bulkedit"
	"stock-backoffice/internal/stock/facets"
	"stock-backoffice/internal/stock/filters"
	"stock-backoffice/internal/stock/search"
	"stock-backoffice/internal/stock/table"
)

// ==========================
// Fake backend
// ==========================

var inventory = []models.Item{
	{"uid": "a", "vin": "XW8KIA0001", "brand": map[string]interface{}{"uid": "kia", "name": "KIA"}},
	{"uid": "b", "vin": "WBABMW0002", "brand": map[string]interface{}{"uid": "bmw", "name": "BMW"}},
	{"uid": "c", "vin": "WAUAUD0003", "brand": map[string]interface{}{"uid": "audi", "name": "Audi"}},
}

// backend serves the listing, feed and mass edit endpoints from memory and
// counts what reached it.
type backend struct {
	token string

	listings     atomic.Int32
	searches     atomic.Int32
	unauthorized atomic.Int32

	mu       sync.Mutex
	feed     []models.FeedItem
	massEdit []models.MassEditItem
	uploads  map[string][]byte
	grants   []string
}

func newBackend(token string) *backend {
	return &backend{
		token:   token,
		uploads: map[string][]byte{},
		grants:  []string{access.PermissionMassEdit},
		feed: []models.FeedItem{
			{UID: "f1", EventType: models.EventSeizedPropertyCreated, Title: "Новое имущество", EntityUID: "a", Read: true},
			{UID: "f2", EventType: models.EventValuationAdded, Title: "Оценка", EntityUID: "b"},
		},
	}
}

func (b *backend) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+b.token {
		b.unauthorized.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/seized-property-items":
		b.listing(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/v1/seized-property-items/total-items":
		b.writeJSON(w, models.AggregateResponse{Tabs: []models.AggregateTab{
			{TabCode: "active", TabName: "В работе", Count: len(inventory)},
			{TabCode: "archive", TabName: "Архив", Count: 1},
		}})
	case r.Method == http.MethodGet && r.URL.Path == "/v1/feed":
		b.mu.Lock()
		page := models.FeedPage{Count: len(b.feed), Items: append([]models.FeedItem(nil), b.feed...)}
		b.mu.Unlock()
		b.writeJSON(w, page)
	case r.Method == http.MethodGet && r.URL.Path == "/v1/feed/unread-count":
		b.writeJSON(w, b.unread())
	case r.Method == http.MethodPost && r.URL.Path == "/v1/feed/mark-read":
		b.markRead(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/v1/seized-property/editable-rows":
		b.writeJSON(w, models.EditableFieldsResponse{Rows: []models.EditableField{
			{Code: bulkedit.FieldMileage, Value: "Пробег", MassChange: true},
			{Code: bulkedit.FieldStatus, Value: "Статус", MassChange: false},
		}})
	case r.Method == http.MethodPatch && r.URL.Path == "/v1/seized-property-items/mass":
		b.saveMassEdit(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/v1/users/e2e/permissions":
		b.mu.Lock()
		grants := append([]string{}, b.grants...)
		b.mu.Unlock()
		b.writeJSON(w, models.Permissions{
			User:        models.PermissionsUser{UserUID: "e2e", FullName: "Оператор", Role: "Operator"},
			Permissions: grants,
		})
	case r.Method == http.MethodPost && r.URL.Path == "/v1/import/valuations":
		b.importValuations(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (b *backend) listing(w http.ResponseWriter, r *http.Request) {
	var req propertylisting.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b.listings.Add(1)
	if req.Filter.Query != nil {
		b.searches.Add(1)
	}

	items := []models.Item{}
	for _, item := range inventory {
		brand := item["brand"].(map[string]interface{})["uid"].(string)
		if len(req.Filter.Brands) > 0 && !contains(req.Filter.Brands, brand) {
			continue
		}
		if req.Filter.Query != nil && !strings.Contains(item["vin"].(string), *req.Filter.Query) {
			continue
		}
		items = append(items, item)
	}
	b.writeJSON(w, models.ListingResponse{Items: items, Count: len(items)})
}

func (b *backend) unread() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, item := range b.feed {
		if !item.Read {
			n++
		}
	}
	return n
}

func (b *backend) markRead(w http.ResponseWriter, r *http.Request) {
	var req models.MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	for i := range b.feed {
		if req.FeedItem == nil || b.feed[i].UID == *req.FeedItem {
			b.feed[i].Read = true
		}
	}
	b.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (b *backend) saveMassEdit(w http.ResponseWriter, r *http.Request) {
	var req models.MassEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	b.massEdit = req.Items
	b.mu.Unlock()

	result := models.MassEditResult{All: len(req.Items), Successed: len(req.Items) - 1, Failed: 1}
	result.Report = []models.MassEditItemResult{{
		UID:  req.Items[len(req.Items)-1].UID,
		Rows: []models.MassEditRowResult{{Code: bulkedit.FieldMileage, Message: "пробег меньше текущего"}},
	}}
	b.writeJSON(w, result)
}

func (b *backend) importValuations(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	b.uploads[header.Filename] = content
	b.mu.Unlock()

	b.writeJSON(w, models.PriceImportResult{
		All: 2, Processed: 2, Successed: 1, Warning: 1,
		Report: []models.ImportReport{{
			MessageType: models.ImportMessageAlarm,
			Message:     "цена ниже оценки",
			Items:       []models.ImportReportItem{{VIN: "WBABMW0002"}},
		}},
	})
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, subject, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, subject+": "+message)
	return nil
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// ==========================
// Wiring
// ==========================

// env wires services and stores the way stockctl does, against the fake
// backend and a miniredis-backed settings store.
type env struct {
	backend  *backend
	server   *httptest.Server
	redis    *miniredis.Miniredis
	store    *storage.Store
	log      logger.Logger
	obs      *observability.Observability
	errors   *apperrors.Handler
	notifier *recordingNotifier

	listing   *propertylisting.Service
	reference *referencedata.Service
	prices    *priceimport.Service
	access    *access.Access
	cache     *search.Cache

	stock *stock.Store
	feed  *feed.Store
	bulk  *bulkedit.Store
}

func signedToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "e2e",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("e2e-secret"))
	require.NoError(t, err)
	return signed
}

func createTestEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	token := signedToken(t)
	be := newBackend(token)
	server := httptest.NewServer(be)
	t.Cleanup(server.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backendStore := storage.NewRedisWithClient(rdb, "stock")
	t.Cleanup(func() { _ = backendStore.Close() })

	gate := auth.NewGate(auth.NewStaticSource(token), 30*time.Second, log)
	require.NoError(t, gate.Login(ctx))

	validator, err := validation.NewSchemaValidator()
	require.NoError(t, err)

	client := stockhttp.NewClient(stockhttp.Options{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
		Grace:   time.Second,
		Auth:    gate,
		Logger:  log,
	})
	t.Cleanup(func() { client.AbortAll() })

	notifier := &recordingNotifier{}
	e := &env{
		backend:  be,
		server:   server,
		redis:    mr,
		store:    storage.NewStore(backendStore, log),
		log:      log,
		obs:      observability.New("stock-e2e"),
		errors:   apperrors.NewHandler(log, notifier),
		notifier: notifier,
	}
	t.Cleanup(e.obs.Shutdown)

	e.listing = propertylisting.NewService(propertylisting.LoadConfig(), propertylisting.ServiceDependencies{
		Client: client, Validator: validator, Logger: log,
	})
	e.reference = referencedata.NewService(referencedata.LoadConfig(), referencedata.ServiceDependencies{
		Client: client, Validator: validator, Logger: log,
	})
	activity := activityfeed.NewService(activityfeed.LoadConfig(), activityfeed.ServiceDependencies{
		Client: client, Validator: validator, Logger: log,
	})
	mass := massedit.NewService(massedit.LoadConfig(), massedit.ServiceDependencies{
		Client: client, Validator: validator, Logger: log,
	})

	e.prices = priceimport.NewService(priceimport.LoadConfig(), priceimport.ServiceDependencies{
		Client: client, Validator: validator, Logger: log,
	})
	perms := permissions.NewService(permissions.LoadConfig(), permissions.ServiceDependencies{
		Client: client, Validator: validator, Storage: e.store, Logger: log,
	})
	e.access = access.New(perms, gate.Subject, log)

	e.cache = search.NewCache(e.listing, search.Options{TTL: time.Minute, Logger: log})
	e.stock = e.newStockStore()
	e.feed = feed.NewStore(activity, feed.Options{PerPage: 10, ReadDebounce: time.Hour, Logger: log})
	e.bulk = bulkedit.NewStore(bulkedit.Dependencies{
		Editor:   mass,
		Source:   e.reference,
		Notifier: notifier,
		Access:   e.access,
		Errors:   e.errors,
		Logger:   log,
	})
	return e
}

// newStockStore builds a listing store over the shared settings storage,
// as a fresh stockctl invocation would.
func (e *env) newStockStore() *stock.Store {
	return stock.NewStore(stock.Dependencies{
		Listing:    e.listing,
		Search:     e.cache,
		Import:     e.prices,
		Access:     e.access,
		Cascade:    facets.NewCascade(e.reference, e.log),
		Additional: facets.NewAdditional(e.reference, e.log),
		Filters:    filters.NewRepository(e.store, e.log),
		Sorting:    table.NewSorting(e.store, e.log),
		Pagination: table.NewPagination(e.store, e.log),
		Columns:    table.NewColumns(e.store, e.log),
		Tabs:       table.NewTabs(e.store, e.log),
		Debouncer:  scheduler.NewDebouncer(time.Hour, 0),
		Errors:     e.errors,
		Telemetry:  e.obs,
		Logger:     e.log,
	})
}

func uids(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Text("uid"))
	}
	return out
}

// ==========================
// Full flow
// ==========================

func TestFullE2E(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full-stack test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	e := createTestEnv(t)
	t.Log("🚀 Starting full-stack flow against the fake backend")

	t.Run("initialize loads tabs and the first page", func(t *testing.T) {
		e.stock.Initialize(ctx)

		snap := e.stock.Snapshot()
		assert.Equal(t, stock.StateReady, snap.State)
		assert.Equal(t, []string{"a", "b", "c"}, uids(snap.Items))
		require.Len(t, snap.Tabs, 2)
		assert.Equal(t, "В работе", snap.Tabs[0].Label)
		assert.Equal(t, filters.GroupActive, snap.Group)
		assert.Equal(t, 3, snap.Page.Count)
	})

	t.Run("applied filters survive a new session", func(t *testing.T) {
		f := e.stock.Snapshot().Filters.Clone()
		f.Brand = filters.IDList{"kia"}

		report, err := e.stock.ApplyFilters(ctx, f)
		require.NoError(t, err)
		assert.True(t, report.Valid())
		assert.Equal(t, []string{"a"}, uids(e.stock.Snapshot().Items))
		assert.True(t, e.redis.Exists("stock:"+filters.StorageKey(filters.GroupActive)))

		next := e.newStockStore()
		next.Initialize(ctx)
		snap := next.Snapshot()
		assert.Equal(t, filters.IDList{"kia"}, snap.Filters.Brand)
		assert.Equal(t, []string{"a"}, uids(snap.Items))
		assert.Equal(t, 1, snap.ActiveFilters)
	})

	t.Run("out of range filters are rejected and not saved", func(t *testing.T) {
		f := e.stock.Snapshot().Filters.Clone()
		f.YearMin = filters.Int(2020)
		f.YearMax = filters.Int(2010)

		report, err := e.stock.ApplyFilters(ctx, f)
		assert.Error(t, err)
		assert.False(t, report.Valid())
		assert.Nil(t, e.stock.Snapshot().Filters.YearMin)
	})

	t.Run("repeated search is served from cache", func(t *testing.T) {
		e.stock.ResetFilters(ctx)
		assert.Equal(t, []string{"a", "b", "c"}, uids(e.stock.Snapshot().Items))

		e.stock.OnSearchInput(ctx, "wbabmw")
		require.True(t, e.stock.FlushSearch())
		assert.Equal(t, []string{"b"}, uids(e.stock.Snapshot().Items))
		assert.Equal(t, int32(1), e.backend.searches.Load())

		e.stock.ResetSearch(ctx)
		assert.Len(t, e.stock.Snapshot().Items, 3)

		e.stock.OnSearchInput(ctx, "  WBABMW ")
		require.True(t, e.stock.FlushSearch())
		assert.Equal(t, []string{"b"}, uids(e.stock.Snapshot().Items))
		assert.Equal(t, int32(1), e.backend.searches.Load(), "second search must not reach the backend")
		assert.Equal(t, 1, e.cache.Stats().Size)

		e.stock.ResetSearch(ctx)
	})

	t.Run("feed marks items read", func(t *testing.T) {
		e.feed.LoadFeed(ctx, true)

		snap := e.feed.Snapshot()
		require.Len(t, snap.Items, 2)
		assert.Equal(t, 1, snap.Unread)
		assert.False(t, snap.HasMore)
		assert.True(t, snap.HasUnreadItems())

		e.feed.MarkAsRead(ctx, "f2")
		snap = e.feed.Snapshot()
		assert.Equal(t, 0, snap.Unread)
		assert.False(t, snap.HasUnreadItems())
		assert.Equal(t, 0, e.backend.unread())
	})

	t.Run("mass edit saves selected fields and reports", func(t *testing.T) {
		e.bulk.LoadFields(ctx, filters.GroupActive)
		e.bulk.SetSelectedItemsCount(2)
		e.bulk.HandleFieldsChange([]string{bulkedit.FieldMileage, bulkedit.FieldStatus})
		assert.False(t, e.bulk.IsFieldAvailable(bulkedit.FieldStatus))

		mileage := 125000
		e.bulk.UpdateForm(func(f *bulkedit.Form) { f.Mileage = &mileage })

		result, err := e.bulk.Save(ctx, []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, 2, result.All)
		assert.Equal(t, 1, result.Failed)

		e.backend.mu.Lock()
		sent := e.backend.massEdit
		e.backend.mu.Unlock()
		require.Len(t, sent, 2)
		assert.Equal(t, []models.ChangedField{{Code: bulkedit.FieldMileage, Change: "125000"}}, sent[0].Rows)

		messages := e.notifier.Messages()
		require.NotEmpty(t, messages)
		assert.Contains(t, messages[len(messages)-1], "всего: 2, успешно: 1, с ошибками: 1")
		assert.Contains(t, messages[len(messages)-1], "пробег меньше текущего")
	})

	t.Run("export needs a permission the operator lacks", func(t *testing.T) {
		_, err := e.stock.Export(ctx)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.CodeOf(err))
		assert.True(t, e.redis.Exists("stock:"+permissions.CacheKey))
	})

	t.Run("price import refreshes the listing on close", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prices.csv")
		require.NoError(t, os.WriteFile(path, []byte("vin;price\nWBABMW0002;1500000\n"), 0o600))

		before := e.backend.listings.Load()
		result, err := e.stock.ImportPrices(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Processed)
		assert.Equal(t, result, e.stock.Snapshot().LastImport)
		assert.Equal(t, before, e.backend.listings.Load())

		e.stock.CloseImport(ctx)
		assert.Nil(t, e.stock.Snapshot().LastImport)
		assert.Equal(t, before+1, e.backend.listings.Load())

		e.backend.mu.Lock()
		uploaded := string(e.backend.uploads["prices.csv"])
		e.backend.mu.Unlock()
		assert.Contains(t, uploaded, "WBABMW0002")
	})

	assert.Zero(t, e.backend.unauthorized.Load())
	t.Log("✅ Full-stack flow passed")
}

// ==========================
// Failure paths
// ==========================

func TestE2E_BackendDownEmptiesTable(t *testing.T) {
	ctx := context.Background()
	e := createTestEnv(t)

	e.stock.Initialize(ctx)
	require.Len(t, e.stock.Snapshot().Items, 3)

	e.server.Close()
	e.stock.Refresh(ctx)

	snap := e.stock.Snapshot()
	assert.Equal(t, stock.StateReady, snap.State)
	assert.Empty(t, snap.Items)
	assert.Equal(t, 0, snap.Page.Count)
}

func TestE2E_SettingsSurviveRedisRestart(t *testing.T) {
	ctx := context.Background()
	e := createTestEnv(t)

	e.stock.Initialize(ctx)
	e.stock.HandleSortChange(ctx, "vin", true)
	require.NoError(t, e.stock.HandleItemsPerPageChange(ctx, table.ItemsPerPageOptions[len(table.ItemsPerPageOptions)-1]))

	e.redis.Close()
	require.NoError(t, e.redis.Restart())

	next := e.newStockStore()
	next.Initialize(ctx)
	snap := next.Snapshot()
	assert.Equal(t, []string{"vin"}, snap.Sort.SortBy)
	assert.Equal(t, []bool{true}, snap.Sort.SortDesc)
	assert.Equal(t, table.ItemsPerPageOptions[len(table.ItemsPerPageOptions)-1], snap.Page.ItemsPerPage)
}
