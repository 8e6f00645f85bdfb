package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriprice-lab/internal/domain"
	"agriprice-lab/internal/storage"
	pgstore "agriprice-lab/internal/storage/postgres"
)

func TestProductStore_InsertAndGetByName(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewProductStore(pool)
	ctx := context.Background()

	product := &domain.Product{ID: "prod_pork", Name: "Pork", Category: "meat"}

	err := store.Insert(ctx, product)
	require.NoError(t, err)

	retrieved, err := store.GetByName(ctx, "Pork")
	require.NoError(t, err)

	assert.Equal(t, product.ID, retrieved.ID)
	assert.Equal(t, product.Name, retrieved.Name)
	assert.Equal(t, product.Category, retrieved.Category)
}

func TestProductStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewProductStore(pool)
	ctx := context.Background()

	product := &domain.Product{ID: "prod_pork", Name: "Pork", Category: "meat"}

	err := store.Insert(ctx, product)
	require.NoError(t, err)

	err = store.Insert(ctx, product)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestProductStore_GetByNameNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewProductStore(pool)

	_, err := store.GetByName(context.Background(), "Durian")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestProductStore_GetAllSorted(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewProductStore(pool)
	ctx := context.Background()

	for _, p := range []*domain.Product{
		{ID: "p3", Name: "Wheat", Category: "grain"},
		{ID: "p1", Name: "Apples", Category: "fruit"},
		{ID: "p2", Name: "Pork", Category: "meat"},
	} {
		require.NoError(t, store.Insert(ctx, p))
	}

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, "Apples", all[0].Name)
	assert.Equal(t, "Pork", all[1].Name)
	assert.Equal(t, "Wheat", all[2].Name)
}
