// internal/services/reference-data/service_test.go
package referencedata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "stock-backoffice/internal/common/errors"
	stockhttp "stock-backoffice/internal/common/http"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/validation"
)

// ==========================
// Test Helpers
// ==========================

type allowAll struct{}

func (allowAll) Authorize(context.Context) (string, bool) { return "test-token", true }

func createTestConfig() *Config {
	cfg := LoadConfig()
	cfg.Timeout = 5 * time.Second
	return cfg
}

func createTestService(t *testing.T, handler http.HandlerFunc) *Service {
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
	return NewService(createTestConfig(), ServiceDependencies{Client: client, Validator: validator, Logger: log})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// ==========================
// Cascade lists
// ==========================

func TestService_Types(t *testing.T) {
	tests := []struct {
		name           string
		parents        []string
		wantQuery      string
		body           string
		validateOutput func(t *testing.T, names []string, children []bool)
	}{
		{
			name:      "root types",
			wantQuery: "",
			body:      `[{"uid":"t1","name":"Легковой","has_children":"true"},{"uid":"t2","name":"Прицеп","has_children":"false"}]`,
			validateOutput: func(t *testing.T, names []string, children []bool) {
				assert.Equal(t, []string{"Легковой", "Прицеп"}, names)
				assert.Equal(t, []bool{true, false}, children)
			},
		},
		{
			name:      "children repeat the parents key",
			parents:   []string{"t1", "t2"},
			wantQuery: "parents=t1&parents=t2",
			body:      `[{"uid":"k1","name":"Седан"}]`,
			validateOutput: func(t *testing.T, names []string, children []bool) {
				assert.Equal(t, []string{"Седан"}, names)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := createTestService(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/seized-property-items/types", r.URL.Path)
				assert.Equal(t, tt.wantQuery, r.URL.RawQuery)
				writeJSON(w, http.StatusOK, tt.body)
			})

			items, err := svc.Types(context.Background(), tt.parents)
			require.NoError(t, err)

			var names []string
			var children []bool
			for _, item := range items {
				names = append(names, item.Name)
				children = append(children, bool(item.HasChildren))
			}
			tt.validateOutput(t, names, children)
		})
	}
}

func TestService_EmptySelectionMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	svc := createTestService(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusOK, `[]`)
	})
	ctx := context.Background()

	brands, err := svc.Brands(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, brands)
	assert.NotNil(t, brands)

	_, err = svc.Models(ctx, []string{})
	require.NoError(t, err)
	_, err = svc.Equipments(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(0), hits.Load())
}

func TestService_BrandsModelsEquipments(t *testing.T) {
	svc := createTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/seized-property-items/brands":
			assert.Equal(t, []string{"s1", "s2"}, r.URL.Query()["types"])
			writeJSON(w, http.StatusOK, `[{"uid":"b1","name":"KIA"}]`)
		case "/v1/seized-property-items/models":
			assert.Equal(t, []string{"b1"}, r.URL.Query()["brands"])
			writeJSON(w, http.StatusOK, `[{"uid":"m1","name":"K5"}]`)
		case "/v1/seized-property-items/equipments":
			assert.Equal(t, []string{"m1"}, r.URL.Query()["models"])
			writeJSON(w, http.StatusOK, `null`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	brands, err := svc.Brands(ctx, []string{"s1", "s2"})
	require.NoError(t, err)
	assert.Equal(t, "b1", string(brands[0].UID))

	modelList, err := svc.Models(ctx, []string{"b1"})
	require.NoError(t, err)
	assert.Equal(t, "K5", modelList[0].Name)

	equipments, err := svc.Equipments(ctx, []string{"m1"})
	require.NoError(t, err)
	assert.NotNil(t, equipments)
	assert.Empty(t, equipments)
}

// ==========================
// Static lists
// ==========================

func TestService_StatusesAndTransitions(t *testing.T) {
	svc := createTestService(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Archive", q.Get("status_group"))
		if q.Get("current_status") != "" {
			assert.Equal(t, "Sold", q.Get("current_status"))
			writeJSON(w, http.StatusOK, `[{"code":"Returned","name":"Возврат","standard":true}]`)
			return
		}
		writeJSON(w, http.StatusOK, `[{"uid":"1","name":"Продан","code":"Sold"}]`)
	})
	ctx := context.Background()

	statuses, err := svc.Statuses(ctx, "Archive")
	require.NoError(t, err)
	assert.Equal(t, "Sold", statuses[0].ToStatusOption().Value)

	transitions, err := svc.StatusTransitions(ctx, "Archive", "Sold")
	require.NoError(t, err)
	require.Len(t, transitions, 1)
	assert.Equal(t, "Returned", transitions[0].Code)
	assert.True(t, transitions[0].Standard)
}

func TestService_EquipmentLists(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	svc := createTestService(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		writeJSON(w, http.StatusOK, `[{"uid":"x","name":"x"}]`)
	})

	for _, list := range []EquipmentList{DriveUnits, FuelTypes, TransmissionTypes, WheelFormulas} {
		_, err := svc.Equipment(context.Background(), list)
		require.NoError(t, err)
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"/v1/seized-property-items/equipment/drive-units",
		"/v1/seized-property-items/equipment/fuel-types",
		"/v1/seized-property-items/equipment/transmission-types",
		"/v1/seized-property-items/equipment/wheel-formulas",
	}, paths)
}

func TestService_ParticipantsDegrade(t *testing.T) {
	svc := createTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("type") == "lessor" {
			writeJSON(w, http.StatusOK, `[{"uid":"p1","name":"ООО Лизинг"}]`)
			return
		}
		writeJSON(w, http.StatusInternalServerError, `{"error":"down"}`)
	})
	ctx := context.Background()

	lessors := svc.Participants(ctx, Lessor)
	require.Len(t, lessors, 1)
	assert.Equal(t, "ООО Лизинг", lessors[0].Name)

	lessees := svc.Participants(ctx, Lessee)
	assert.NotNil(t, lessees)
	assert.Empty(t, lessees)
}

func TestService_Users(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantNames []string
	}{
		{name: "display names", body: `{"users":[{"uid":"u1","employeeDisplay":"Иванов"},{"uid":"u2","employeeDisplay":null}]}`, wantNames: []string{"Иванов", "u2"}},
		{name: "missing list", body: `{}`, wantNames: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := createTestService(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/users", r.URL.Path)
				writeJSON(w, http.StatusOK, tt.body)
			})

			users, err := svc.Users(context.Background())
			require.NoError(t, err)
			require.NotNil(t, users)

			var names []string
			for _, u := range users {
				names = append(names, u.DisplayName())
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

// ==========================
// Failures
// ==========================

func TestService_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode apperrors.ErrorCode
	}{
		{name: "forbidden", status: http.StatusForbidden, body: `{}`, wantCode: apperrors.ErrCodeForbidden},
		{name: "server error", status: http.StatusBadGateway, body: `{}`, wantCode: apperrors.ErrCodeHTTPError},
		{name: "schema mismatch", status: http.StatusOK, body: `[{"title":"no uid"}]`, wantCode: apperrors.ErrCodeMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := createTestService(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := svc.Liquidities(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrReferenceFetchFailed))
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
		})
	}
}

func TestService_UnauthorizedResolvesEmpty(t *testing.T) {
	svc := createTestService(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{}`)
	})

	items, err := svc.KeysCount(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, LoadConfig().Validate())
	assert.Error(t, (&Config{BasePath: "v1"}).Validate())
	assert.Error(t, (&Config{Timeout: time.Second}).Validate())
}
