// internal/services/permissions/service.go
package permissions

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/storage"
	"stock-backoffice/internal/common/validation"
	"stock-backoffice/internal/models"
)

const (
	ServiceName = "permissions"
)

var (
	ErrPermissionsFailed      = errors.New("PERMISSIONS_FETCH_FAILED")
	ErrPermissionsUnavailable = errors.New("PERMISSIONS_UNAVAILABLE")
)

// Service reads the role and permissions of a user. Results are kept in
// storage for CacheTTL so each command does not ask again.
type Service struct {
	config    *Config
	client    *stockhttp.Client
	validator stockhttp.Validator
	storage   *storage.Store
	logger    logger.Logger
	now       func() time.Time
}

func NewService(config *Config, deps ServiceDependencies) *Service {
	return &Service{
		config:    config,
		client:    deps.Client,
		validator: deps.Validator,
		storage:   deps.Storage,
		logger:    deps.Logger.WithFields(map[string]interface{}{"service": ServiceName}),
		now:       time.Now,
	}
}

// Get returns the permissions of userID, from the cache when it holds a
// fresh entry for the same user.
func (s *Service) Get(ctx context.Context, userID string) (*models.Permissions, error) {
	if cached, ok := s.cached(ctx, userID); ok {
		return cached, nil
	}

	perms, err := s.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.storage != nil && s.config.CacheTTL > 0 {
		if err := s.storage.Save(ctx, CacheKey, cachedPermissions{UserID: userID, Permissions: *perms}); err != nil {
			s.logger.Warn("failed to cache permissions", map[string]interface{}{"error": err.Error()})
		}
	}
	return perms, nil
}

// Forget drops the cached permissions.
func (s *Service) Forget(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}
	return s.storage.Clear(ctx, CacheKey)
}

func (s *Service) cached(ctx context.Context, userID string) (*models.Permissions, bool) {
	if s.storage == nil || s.config.CacheTTL <= 0 {
		return nil, false
	}
	var entry cachedPermissions
	savedAt, ok := s.storage.LoadWithTimestamp(ctx, CacheKey, &entry)
	if !ok || entry.UserID != userID || s.now().Sub(savedAt) > s.config.CacheTTL {
		return nil, false
	}
	s.logger.Debug("permissions served from cache", map[string]interface{}{"user": userID})
	return &entry.Permissions, true
}

func (s *Service) fetch(ctx context.Context, userID string) (*models.Permissions, error) {
	endpoint := strings.ReplaceAll(s.config.Endpoint, "{user}", url.PathEscape(userID))

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	resp, err := s.client.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPermissionsFailed, err)
	}

	out := &models.Permissions{}
	ok, err := stockhttp.DecodeChecked(s.validator, validation.SchemaPermissions, resp, endpoint, out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPermissionsFailed, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: Не удалось получить права пользователя", ErrPermissionsUnavailable)
	}

	s.logger.Info("permissions loaded", map[string]interface{}{
		"user":        userID,
		"role":        out.User.Role,
		"permissions": len(out.Permissions),
	})
	return out, nil
}
