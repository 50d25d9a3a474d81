// internal/stock/filters/repository_test.go
package filters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/storage"
)

func createTestRepository(t *testing.T) (*Repository, *storage.MemoryBackend) {
	t.Helper()
	backend := storage.NewMemoryBackend()
	log := logger.NewTestLogger(t)
	return NewRepository(storage.NewStore(backend, log), log), backend
}

func TestRepository_PerGroup(t *testing.T) {
	ctx := context.Background()
	repo, _ := createTestRepository(t)

	active := Empty()
	active.Brand = IDList{"b1"}
	require.NoError(t, repo.Save(ctx, GroupActive, active))

	assert.Equal(t, IDList{"b1"}, repo.Load(ctx, GroupActive).Brand)
	assert.Empty(t, repo.Load(ctx, GroupArchive).Brand)

	require.NoError(t, repo.Clear(ctx, GroupActive))
	assert.Empty(t, repo.Load(ctx, GroupActive).Brand)
}

func TestRepository_ToleratesMalformedEntries(t *testing.T) {
	ctx := context.Background()
	repo, backend := createTestRepository(t)

	require.NoError(t, backend.Set(ctx, StorageKey(GroupActive), []byte(`{"data": "not filters", "timestamp": 1}`)))

	f := repo.Load(ctx, GroupActive)
	assert.Equal(t, Empty(), f)
}

func TestRepository_ActiveFiltersCount(t *testing.T) {
	ctx := context.Background()
	repo, _ := createTestRepository(t)

	_, ok := repo.ActiveFiltersCount(ctx, GroupActive)
	assert.False(t, ok, "nothing saved")

	require.NoError(t, repo.Save(ctx, GroupActive, Empty()))
	_, ok = repo.ActiveFiltersCount(ctx, GroupActive)
	assert.False(t, ok, "saved but empty")
	assert.False(t, repo.HasActiveFiltersInGroup(ctx, GroupActive))

	f := Empty()
	f.Status = IDList{"a", "b"}
	f.YearMin = Int(2000)
	require.NoError(t, repo.Save(ctx, GroupActive, f))

	n, ok := repo.ActiveFiltersCount(ctx, GroupActive)
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	assert.True(t, repo.HasActiveFiltersInGroup(ctx, GroupActive))
}
