// internal/feed/store.go
package feed

import (
	"context"
	"sync"
	"time"

	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/metrics"
	"stock-backoffice/internal/common/observer"
	"stock-backoffice/internal/common/scheduler"
	"stock-backoffice/internal/models"
	activityfeed "stock-backoffice/internal/services/activity-feed"
)

const (
	DefaultPerPage      = 50
	DefaultReadDebounce = 3 * time.Second
	DefaultPollInterval = 2 * time.Minute

	pollJob = "feed-unread"
)

// Source is the activity feed backend. Its reads degrade to empty values.
type Source interface {
	Feed(ctx context.Context, q activityfeed.Query) models.FeedPage
	UnreadCount(ctx context.Context) int
	MarkRead(ctx context.Context, uid *string) bool
}

type Options struct {
	PerPage      int
	ReadDebounce time.Duration
	Logger       logger.Logger
}

type Snapshot struct {
	Items     []models.FeedItem
	Total     int
	Loading   bool
	Page      int
	PerPage   int
	HasMore   bool
	EventType models.FeedEventType
	Unread    int
	LastRead  string
}

func (s Snapshot) IsEmpty() bool { return len(s.Items) == 0 }

// IsFiltered reports whether one event type is selected.
func (s Snapshot) IsFiltered() bool { return s.EventType != "" }

func (s Snapshot) HasUnreadItems() bool {
	for _, item := range s.Items {
		if !item.Read {
			return true
		}
	}
	return false
}

// Store is the activity feed: paged loading, event type filter, read
// marks and the unread counter.
type Store struct {
	source  Source
	logger  logger.Logger
	subject *observer.Subject[Snapshot]
	reads   *scheduler.Debouncer

	mu         sync.Mutex
	items      []models.FeedItem
	total      int
	loading    bool
	page       int
	perPage    int
	hasMore    bool
	eventType  models.FeedEventType
	unread     int
	lastRead   string
	generation uint64
	pending    map[string]bool
	pendingCtx context.Context
}

func NewStore(source Source, opts Options) *Store {
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.ReadDebounce <= 0 {
		opts.ReadDebounce = DefaultReadDebounce
	}
	return &Store{
		source:  source,
		logger:  logger.ForComponent(opts.Logger, "feed"),
		subject: observer.NewSubject[Snapshot](),
		reads:   scheduler.NewDebouncer(opts.ReadDebounce, 0),
		items:   []models.FeedItem{},
		page:    1,
		perPage: opts.PerPage,
		hasMore: true,
		pending: make(map[string]bool),
	}
}

func (s *Store) Subscribe(fn func(Snapshot)) func() {
	return s.subject.Subscribe(fn)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Items:     append([]models.FeedItem(nil), s.items...),
		Total:     s.total,
		Loading:   s.loading,
		Page:      s.page,
		PerPage:   s.perPage,
		HasMore:   s.hasMore,
		EventType: s.eventType,
		Unread:    s.unread,
		LastRead:  s.lastRead,
	}
}

func (s *Store) publish() {
	s.subject.Notify(s.Snapshot())
}

// LoadFeed loads the current page and appends it. With reset it starts over
// from page 1; a load overtaken by a reset is dropped.
func (s *Store) LoadFeed(ctx context.Context, reset bool) {
	s.mu.Lock()
	if reset {
		s.page = 1
		s.items = []models.FeedItem{}
		s.hasMore = true
		s.generation++
	}
	s.loading = true
	q := activityfeed.Query{EventType: s.eventType, Page: s.page, PerPage: s.perPage}
	gen := s.generation
	s.mu.Unlock()
	s.publish()

	page := s.source.Feed(ctx, q)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	if reset {
		s.items = append([]models.FeedItem{}, page.Items...)
	} else {
		s.items = append(s.items, page.Items...)
	}
	s.total = page.Count
	s.hasMore = len(s.items) < s.total
	s.loading = false
	s.mu.Unlock()

	s.logger.Debug("feed page loaded", map[string]interface{}{
		"page":      q.Page,
		"received":  len(page.Items),
		"total":     page.Count,
		"eventType": string(q.EventType),
	})
	s.publish()
	s.RefreshUnread(ctx)
}

// LoadMore loads the next page unless a load is running or everything is
// loaded.
func (s *Store) LoadMore(ctx context.Context) {
	s.mu.Lock()
	if s.loading || !s.hasMore {
		s.mu.Unlock()
		return
	}
	s.page++
	s.mu.Unlock()

	s.LoadFeed(ctx, false)
}

// FilterByEventType reloads the feed for one event type; the empty type
// selects all events.
func (s *Store) FilterByEventType(ctx context.Context, t models.FeedEventType) {
	s.mu.Lock()
	if t == s.eventType {
		s.mu.Unlock()
		return
	}
	s.eventType = t
	s.mu.Unlock()

	s.LoadFeed(ctx, true)
}

func (s *Store) setRead(uid string, read bool) bool {
	for i := range s.items {
		if s.items[i].UID == uid {
			s.items[i].Read = read
			return true
		}
	}
	return false
}

func (s *Store) unreadLocked(uid string) bool {
	for _, item := range s.items {
		if item.UID == uid {
			return !item.Read
		}
	}
	return false
}

// MarkAsRead flags uid read at once and confirms with the backend. When the
// backend refuses, the flag is restored.
func (s *Store) MarkAsRead(ctx context.Context, uid string) {
	s.mu.Lock()
	if !s.unreadLocked(uid) {
		s.mu.Unlock()
		return
	}
	s.setRead(uid, true)
	s.mu.Unlock()
	s.publish()

	ok := s.source.MarkRead(ctx, &uid)

	s.mu.Lock()
	if ok {
		s.lastRead = uid
	} else {
		s.setRead(uid, false)
	}
	s.mu.Unlock()

	if !ok {
		s.logger.Warn("server refused read mark", map[string]interface{}{"uid": uid})
	}
	s.publish()
	s.RefreshUnread(ctx)
}

// MarkAsReadOnScroll queues uid. Queued items are marked once scrolling
// has paused for the read debounce.
func (s *Store) MarkAsReadOnScroll(ctx context.Context, uid string) {
	s.mu.Lock()
	if !s.unreadLocked(uid) {
		s.mu.Unlock()
		return
	}
	s.pending[uid] = true
	s.pendingCtx = context.WithoutCancel(ctx)
	s.mu.Unlock()

	s.reads.Trigger(s.markPending)
}

func (s *Store) markPending() {
	s.mu.Lock()
	uids := make([]string, 0, len(s.pending))
	for _, item := range s.items {
		if s.pending[item.UID] {
			uids = append(uids, item.UID)
		}
	}
	s.pending = make(map[string]bool)
	ctx := s.pendingCtx
	s.mu.Unlock()

	for _, uid := range uids {
		s.MarkAsRead(ctx, uid)
	}
}

// FlushReads marks the queued items now. It reports whether any were
// queued.
func (s *Store) FlushReads() bool {
	return s.reads.Flush()
}

// ReadAll marks every event read and reloads.
func (s *Store) ReadAll(ctx context.Context) {
	s.reads.Cancel()
	s.mu.Lock()
	s.pending = make(map[string]bool)
	s.mu.Unlock()

	if !s.source.MarkRead(ctx, nil) {
		s.logger.Warn("server refused read-all", nil)
	}
	s.LoadFeed(ctx, true)
}

// RefreshUnread reloads the unread counter.
func (s *Store) RefreshUnread(ctx context.Context) int {
	n := s.source.UnreadCount(ctx)

	s.mu.Lock()
	s.unread = n
	s.mu.Unlock()

	metrics.FeedUnread.Set(float64(n))
	s.publish()
	return n
}

// Poll refreshes the unread counter on jobs every interval.
func (s *Store) Poll(jobs *scheduler.Jobs, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return jobs.Every(pollJob, interval, func(ctx context.Context) {
		s.RefreshUnread(ctx)
	})
}
