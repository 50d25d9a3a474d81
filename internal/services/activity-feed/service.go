// internal/services/activity-feed/service.go
package activityfeed

import (
	"context"
	"net/url"
	"strconv"

	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/validation"
	"stock-backoffice/internal/models"
)

const (
	ServiceName = "activity-feed"
)

// Service reads the activity feed. Every read degrades instead of failing.
type Service struct {
	config    *Config
	client    *stockhttp.Client
	validator stockhttp.Validator
	logger    logger.Logger
}

func NewService(config *Config, deps ServiceDependencies) *Service {
	return &Service{
		config:    config,
		client:    deps.Client,
		validator: deps.Validator,
		logger:    deps.Logger.WithFields(map[string]interface{}{"service": ServiceName}),
	}
}

// Feed returns one page of events, or an empty page on any failure.
func (s *Service) Feed(ctx context.Context, q Query) models.FeedPage {
	empty := models.FeedPage{Items: []models.FeedItem{}}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	resp, err := s.client.Get(ctx, s.config.Endpoint, s.params(q))
	if err != nil {
		s.logger.Warn("feed unavailable", map[string]interface{}{"error": err.Error()})
		return empty
	}

	var page models.FeedPage
	ok, err := stockhttp.DecodeChecked(s.validator, validation.SchemaFeed, resp, s.config.Endpoint, &page)
	if err != nil {
		s.logger.Warn("feed malformed", map[string]interface{}{"error": err.Error()})
		return empty
	}
	if !ok || page.Items == nil {
		return empty
	}
	if page.Count == 0 {
		page.Count = len(page.Items)
	}
	return page
}

// UnreadCount returns the number of unread events, 0 on failure.
func (s *Service) UnreadCount(ctx context.Context) int {
	endpoint := s.config.Endpoint + "/unread-count"

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	resp, err := s.client.Get(ctx, endpoint, nil)
	if err != nil {
		s.logger.Warn("unread count unavailable", map[string]interface{}{"error": err.Error()})
		return 0
	}

	var count int
	if _, err := stockhttp.DecodeChecked(s.validator, validation.SchemaUnreadCount, resp, endpoint, &count); err != nil {
		s.logger.Warn("unread count malformed", map[string]interface{}{"error": err.Error()})
		return 0
	}
	return count
}

// MarkRead marks one event as read, or all of them when uid is nil.
func (s *Service) MarkRead(ctx context.Context, uid *string) bool {
	endpoint := s.config.Endpoint + "/mark-read"

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	if _, err := s.client.Post(ctx, endpoint, nil, models.MarkReadRequest{FeedItem: uid}); err != nil {
		fields := map[string]interface{}{"error": err.Error()}
		if uid != nil {
			fields["uid"] = *uid
		}
		s.logger.Warn("mark read failed", fields)
		return false
	}
	return true
}

func (s *Service) params(q Query) url.Values {
	params := url.Values{}
	if q.EventType != "" {
		for i, t := range models.FeedEventTypes() {
			if t == q.EventType {
				params.Set("FeedEventType", strconv.Itoa(i))
			}
		}
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = s.config.PerPage
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("perPage", strconv.Itoa(perPage))
	return params
}
