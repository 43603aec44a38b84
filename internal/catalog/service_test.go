package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/crownleather-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/crownleather-backend/pkg/errors"
)

func newSeededService(t *testing.T) (Service, *Repository) {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	require.NoError(t, SeedStorefront(context.Background(), repo, nil))
	svc, err := NewService(repo, dbtest.TxRunner{DB: conn}, nil)
	require.NoError(t, err)
	return svc, repo
}

func TestSeedIsIdempotent(t *testing.T) {
	svc, repo := newSeededService(t)
	ctx := context.Background()

	newName := "Renamed Wallet"
	_, err := svc.Update(ctx, 3, UpdateItemInput{Name: &newName})
	require.NoError(t, err)

	require.NoError(t, SeedStorefront(ctx, repo, nil))
	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 8)
	assert.Equal(t, "Renamed Wallet", items[2].Name)
	assert.Equal(t, "Classic Leather Handbag", items[0].Name)
	assert.True(t, items[0].Price.Equal(decimal.NewFromInt(299)))
}

func TestGetUnknownIsNotFound(t *testing.T) {
	svc, _ := newSeededService(t)
	_, err := svc.Get(context.Background(), 99)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestCreateAssignsNextID(t *testing.T) {
	svc, _ := newSeededService(t)
	item, err := svc.Create(context.Background(), CreateItemInput{
		Name:     "Passport Cover",
		Price:    decimal.RequireFromString("59.999"),
		Category: "Accessories",
		Stock:    4,
	})
	require.NoError(t, err)
	assert.Equal(t, 9, item.ID)
	assert.Equal(t, "60.00", item.DTO().Price)
	assert.Equal(t, placeholderImage, item.Image)
	assert.True(t, item.IsActive)
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	svc, _ := newSeededService(t)
	_, err := svc.Create(context.Background(), CreateItemInput{Name: "x", Category: "y", Price: decimal.NewFromInt(-1)})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestDeactivateHidesFromStorefront(t *testing.T) {
	svc, _ := newSeededService(t)
	ctx := context.Background()
	require.NoError(t, svc.Deactivate(ctx, 8))

	items, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 7)

	_, err = svc.Get(ctx, 8)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	all, err := svc.AdminList(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 8)
	assert.False(t, all[7].IsActive)
}

func TestUpdateUnknownIsNotFound(t *testing.T) {
	svc, _ := newSeededService(t)
	stock := 3
	_, err := svc.Update(context.Background(), 42, UpdateItemInput{Stock: &stock})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = svc.Update(context.Background(), 1, UpdateItemInput{})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
