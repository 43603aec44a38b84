package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/crownleather-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/crownleather-backend/pkg/errors"
)

type stubCatalog struct {
	catalog.Service
	items   []catalog.Item
	created catalog.CreateItemInput
	updated *catalog.UpdateItemInput
	deleted int
}

func (s *stubCatalog) List(context.Context) ([]catalog.Item, error) {
	var out []catalog.Item
	for _, it := range s.items {
		if it.IsActive {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *stubCatalog) AdminList(context.Context) ([]catalog.Item, error) {
	return s.items, nil
}

func (s *stubCatalog) Get(_ context.Context, id int) (catalog.Item, error) {
	for _, it := range s.items {
		if it.ID == id && it.IsActive {
			return it, nil
		}
	}
	return catalog.Item{}, pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found")
}

func (s *stubCatalog) Create(_ context.Context, in catalog.CreateItemInput) (catalog.Item, error) {
	s.created = in
	return catalog.Item{ID: 99, Name: in.Name, Price: in.Price, Category: in.Category, IsActive: true}, nil
}

func (s *stubCatalog) Update(_ context.Context, id int, in catalog.UpdateItemInput) (catalog.Item, error) {
	s.updated = &in
	return catalog.Item{ID: id, Name: "Bifold Wallet", Price: *in.Price, IsActive: true}, nil
}

func (s *stubCatalog) Deactivate(_ context.Context, id int) error {
	s.deleted = id
	return nil
}

func sampleCatalog() *stubCatalog {
	return &stubCatalog{items: []catalog.Item{
		{ID: 1, Name: "Bifold Wallet", Price: decimal.RequireFromString("85.00"), Category: "Wallets", IsActive: true},
		{ID: 2, Name: "Retired Satchel", Price: decimal.RequireFromString("300.00"), Category: "Bags"},
	}}
}

func TestCatalogListHidesInactive(t *testing.T) {
	rec := serve(CatalogList(sampleCatalog(), nil), newRequest(http.MethodGet, "/api/v1/catalog", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	items := decodeData[[]catalog.ItemDTO](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "85.00", items[0].Price)
}

func TestCatalogGet(t *testing.T) {
	svc := sampleCatalog()

	rec := serve(CatalogGet(svc, nil), withURLParams(newRequest(http.MethodGet, "/api/v1/catalog/1", ""), "id", "1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bifold Wallet", decodeData[catalog.ItemDTO](t, rec).Name)

	rec = serve(CatalogGet(svc, nil), withURLParams(newRequest(http.MethodGet, "/api/v1/catalog/2", ""), "id", "2"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(CatalogGet(svc, nil), withURLParams(newRequest(http.MethodGet, "/api/v1/catalog/abc", ""), "id", "abc"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeError(t, rec).Code)
}
