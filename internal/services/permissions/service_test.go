// internal/services/permissions/service_test.go
package permissions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "stock-backoffice/internal/common/errors"
	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/storage"
	"stock-backoffice/internal/common/validation"
	"stock-backoffice/internal/models"
)

// ==========================
// Test Helpers
// ==========================

type allowAll struct{}

func (allowAll) Authorize(context.Context) (string, bool) { return "test-token", true }

func createTestService(t *testing.T, handler http.HandlerFunc) (*Service, *storage.Store) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.NewTestLogger(t)
	validator, err := validation.NewSchemaValidator()
	require.NoError(t, err)

	client := stockhttp.NewClient(stockhttp.Options{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
		Grace:   10 * time.Millisecond,
		Auth:    allowAll{},
		Logger:  log,
	})
	st := storage.NewStore(storage.NewMemoryBackend(), log)
	return NewService(LoadConfig(), ServiceDependencies{Client: client, Validator: validator, Storage: st, Logger: log}), st
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

const managerBody = `{"user":{"user_uid":"e-1","full_name":"Иванов И.","role":"Manager"},"permissions":["stock.export"]}`

// ==========================
// Get
// ==========================

func TestService_Get(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		response       string
		validateOutput func(t *testing.T, perms *models.Permissions, err error)
	}{
		{
			name:     "manager",
			status:   http.StatusOK,
			response: managerBody,
			validateOutput: func(t *testing.T, perms *models.Permissions, err error) {
				require.NoError(t, err)
				assert.True(t, perms.IsManager())
				assert.True(t, perms.Has("stock.export"))
				assert.False(t, perms.Has("stock.mass_edit"))
			},
		},
		{
			name:     "operator",
			status:   http.StatusOK,
			response: `{"user":{"user_uid":"e-1","role":"Operator"},"permissions":[]}`,
			validateOutput: func(t *testing.T, perms *models.Permissions, err error) {
				require.NoError(t, err)
				assert.False(t, perms.IsManager())
				assert.Empty(t, perms.Permissions)
			},
		},
		{
			name:   "no body",
			status: http.StatusNoContent,
			validateOutput: func(t *testing.T, perms *models.Permissions, err error) {
				assert.ErrorIs(t, err, ErrPermissionsUnavailable)
				assert.Nil(t, perms)
			},
		},
		{
			name:     "forbidden",
			status:   http.StatusForbidden,
			response: `{"error":"denied"}`,
			validateOutput: func(t *testing.T, perms *models.Permissions, err error) {
				assert.True(t, errors.Is(err, ErrPermissionsFailed))
				assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.CodeOf(err))
			},
		},
		{
			name:     "malformed",
			status:   http.StatusOK,
			response: `{"user":{"role":"Manager"}}`,
			validateOutput: func(t *testing.T, perms *models.Permissions, err error) {
				assert.Equal(t, apperrors.ErrCodeMalformedResponse, apperrors.CodeOf(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st := createTestService(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/users/e-1/permissions", r.URL.Path)
				if tt.status == http.StatusNoContent {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				writeJSON(w, tt.status, tt.response)
			})

			perms, err := svc.Get(context.Background(), "e-1")
			tt.validateOutput(t, perms, err)
			assert.Equal(t, err == nil, st.Has(context.Background(), CacheKey))
		})
	}
}

func TestService_GetUsesCache(t *testing.T) {
	var hits atomic.Int32
	svc, _ := createTestService(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusOK, managerBody)
	})
	ctx := context.Background()

	_, err := svc.Get(ctx, "e-1")
	require.NoError(t, err)
	perms, err := svc.Get(ctx, "e-1")
	require.NoError(t, err)
	assert.True(t, perms.IsManager())
	assert.Equal(t, int32(1), hits.Load())

	// another user
	_, err = svc.Get(ctx, "e-2")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	// expired
	svc.now = func() time.Time { return time.Now().Add(svc.config.CacheTTL + time.Minute) }
	_, err = svc.Get(ctx, "e-2")
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())

	svc.now = time.Now
	require.NoError(t, svc.Forget(ctx))
	_, err = svc.Get(ctx, "e-2")
	require.NoError(t, err)
	assert.Equal(t, int32(4), hits.Load())
}

func TestConfig_Validate(t *testing.T) {
	cfg := LoadConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Endpoint = "v1/users/permissions"
	assert.Error(t, cfg.Validate())
}
