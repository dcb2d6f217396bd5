package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncbridge/backend/internal/domain/integration"
)

func TestInMemoryIdentityRepository_InsertAndGet(t *testing.T) {
	repo := NewInMemoryIdentityRepository()
	ctx := context.Background()

	record := integration.NewIdentityRecord(10, "cat-10")
	require.NoError(t, repo.Insert(ctx, integration.FamilyCategories, record))

	got, err := repo.Get(ctx, integration.FamilyCategories, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.ErpID)
	assert.Equal(t, "cat-10", got.LocalID)
	assert.Nil(t, got.SyncDate)
}

func TestInMemoryIdentityRepository_GetMissing(t *testing.T) {
	repo := NewInMemoryIdentityRepository()

	_, err := repo.Get(context.Background(), integration.FamilyProducts, 999)
	assert.ErrorIs(t, err, integration.ErrIdentityNotFound)
}

func TestInMemoryIdentityRepository_GetByLocal(t *testing.T) {
	repo := NewInMemoryIdentityRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, integration.FamilyVariants, integration.NewIdentityRecord(77, "var-77")))

	got, err := repo.GetByLocal(ctx, integration.FamilyVariants, "var-77")
	require.NoError(t, err)
	assert.Equal(t, int64(77), got.ErpID)

	_, err = repo.GetByLocal(ctx, integration.FamilyVariants, "var-unknown")
	assert.ErrorIs(t, err, integration.ErrIdentityNotFound)
}

func TestInMemoryIdentityRepository_UpsertSemantics(t *testing.T) {
	repo := NewInMemoryIdentityRepository()
	ctx := context.Background()

	first := integration.NewIdentityRecord(5, "p-5")
	require.NoError(t, repo.Insert(ctx, integration.FamilyProducts, first))

	updated := first
	updated.MarkSynced()
	require.NoError(t, repo.Insert(ctx, integration.FamilyProducts, updated))

	n, err := repo.Length(ctx, integration.FamilyProducts)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.Get(ctx, integration.FamilyProducts, 5)
	require.NoError(t, err)
	assert.NotNil(t, got.SyncDate)
}

func TestInMemoryIdentityRepository_InsertMany(t *testing.T) {
	repo := NewInMemoryIdentityRepository()
	ctx := context.Background()

	records := []integration.IdentityRecord{
		integration.NewIdentityRecord(1, "a"),
		integration.NewIdentityRecord(2, "b"),
		integration.NewIdentityRecord(3, "c"),
	}
	require.NoError(t, repo.InsertMany(ctx, integration.FamilyUsers, records))

	ids, err := repo.GetAll(ctx, integration.FamilyUsers)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 3}, ids)
}

func TestInMemoryIdentityRepository_Remove(t *testing.T) {
	repo := NewInMemoryIdentityRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, integration.FamilyOrders, integration.NewIdentityRecord(9, "ord-9")))
	require.NoError(t, repo.Remove(ctx, integration.FamilyOrders, 9))

	_, err := repo.Get(ctx, integration.FamilyOrders, 9)
	assert.ErrorIs(t, err, integration.ErrIdentityNotFound)

	_, err = repo.GetByLocal(ctx, integration.FamilyOrders, "ord-9")
	assert.ErrorIs(t, err, integration.ErrIdentityNotFound)

	// Removing an unknown id is a no-op.
	assert.NoError(t, repo.Remove(ctx, integration.FamilyOrders, 9))
}

func TestInMemoryIdentityRepository_Diff(t *testing.T) {
	repo := NewInMemoryIdentityRepository()
	ctx := context.Background()

	require.NoError(t, repo.InsertMany(ctx, integration.FamilyCategories, []integration.IdentityRecord{
		integration.NewIdentityRecord(1, "c1"),
		integration.NewIdentityRecord(2, "c2"),
	}))

	fresh, err := repo.Diff(ctx, integration.FamilyCategories, []int64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{3, 4}, fresh)

	none, err := repo.Diff(ctx, integration.FamilyCategories, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInMemoryIdentityRepository_Stale(t *testing.T) {
	repo := NewInMemoryIdentityRepository()
	ctx := context.Background()

	require.NoError(t, repo.InsertMany(ctx, integration.FamilyProducts, []integration.IdentityRecord{
		integration.NewIdentityRecord(1, "p1"),
		integration.NewIdentityRecord(2, "p2"),
		integration.NewIdentityRecord(3, "p3"),
	}))

	stale, err := repo.Stale(ctx, integration.FamilyProducts, []int64{2, 3})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1}, stale)

	all, err := repo.Stale(ctx, integration.FamilyProducts, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 3}, all)
}

func TestInMemoryIdentityRepository_LastSync(t *testing.T) {
	repo := NewInMemoryIdentityRepository()
	ctx := context.Background()

	ts, err := repo.GetLastSync(ctx, integration.FamilyUsers)
	require.NoError(t, err)
	assert.Nil(t, ts)

	now := time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetLastSync(ctx, integration.FamilyUsers, now))

	ts, err = repo.GetLastSync(ctx, integration.FamilyUsers)
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.True(t, now.Equal(*ts))
}
