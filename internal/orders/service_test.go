package orders

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/crownleather-backend/pkg/config"
	"github.com/angelmondragon/crownleather-backend/pkg/db/dbtest"
	"github.com/angelmondragon/crownleather-backend/pkg/db/models"
	"github.com/angelmondragon/crownleather-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/crownleather-backend/pkg/errors"
	"github.com/angelmondragon/crownleather-backend/pkg/logger"
	"github.com/angelmondragon/crownleather-backend/pkg/outbox"
	"github.com/angelmondragon/crownleather-backend/pkg/pagination"
	"github.com/angelmondragon/crownleather-backend/pkg/types"
)

type fixture struct {
	svc  Service
	db   *gorm.DB
	repo *Repository
	out  *outbox.Repository
}

func newFixture(t *testing.T, cfg config.OrdersConfig) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	outRepo := outbox.NewRepository(conn)
	repo := NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Repo:   repo,
		Tx:     dbtest.TxRunner{DB: conn},
		Outbox: outbox.NewService(outRepo, logg),
		Config: cfg,
		Logger: logg,
	})
	require.NoError(t, err)
	return fixture{svc: svc, db: conn, repo: repo, out: outRepo}
}

func sampleOrder(id, identityID string, createdAt time.Time, lines ...LineItem) Order {
	if len(lines) == 0 {
		lines = []LineItem{{CatalogItemID: 1, Name: "Classic Leather Handbag", UnitPrice: decimal.NewFromInt(299), Quantity: 1}}
	}
	subtotal := Subtotal(lines)
	tax, total := ComputeTotals(subtotal)
	return Order{
		ID:                    id,
		IdentityID:            identityID,
		LineItems:             lines,
		Subtotal:              subtotal,
		Tax:                   tax,
		Total:                 total,
		Currency:              "USD",
		Status:                enums.OrderStatusProcessing,
		Shipping:              types.Address{Street: "1 Main St", City: "Austin", State: "TX", ZipCode: "78701", Country: "US"},
		PaymentConfirmationID: "sim_" + id,
		CreatedAt:             createdAt.UTC(),
	}
}

func (f fixture) record(t *testing.T, o Order) Order {
	t.Helper()
	var out Order
	err := f.db.Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = f.svc.Record(context.Background(), tx, o)
		return err
	})
	require.NoError(t, err)
	return out
}

func TestRecordPersistsOrderAndEvent(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{})
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	o := sampleOrder("ORD-1", "id-1", base,
		LineItem{CatalogItemID: 1, Name: "Classic Leather Handbag", UnitPrice: decimal.NewFromInt(299), Quantity: 2},
		LineItem{CatalogItemID: 3, Name: "Vintage Wallet", UnitPrice: decimal.NewFromInt(89), Quantity: 1},
	)
	f.record(t, o)

	got, err := f.svc.Get(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "687.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, "54.96", got.Tax.StringFixed(2))
	assert.Equal(t, "741.96", got.Total.StringFixed(2))
	require.Len(t, got.LineItems, 2)
	assert.Equal(t, 1, got.LineItems[0].CatalogItemID)
	assert.Equal(t, 3, got.LineItems[1].CatalogItemID)
	assert.Equal(t, "Austin", got.Shipping.City)

	pending, err := f.out.CountPending(f.db)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)

	var row models.OutboxEvent
	require.NoError(t, f.db.First(&row).Error)
	assert.Equal(t, enums.EventOrderCreated, row.EventType)
	assert.Equal(t, "ORD-1", row.AggregateID)
}

func TestRecordRejectsDuplicateID(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{})
	o := sampleOrder("ORD-dup", "id-1", time.Now())
	f.record(t, o)

	err := f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.svc.Record(context.Background(), tx, o)
		return err
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateOrder))
	assert.Equal(t, pkgerrors.CodeInternal, pkgerrors.CodeOf(err))
}

func TestRecordRejectsInconsistentTotals(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{})
	o := sampleOrder("ORD-bad", "id-1", time.Now())
	o.Total = o.Total.Add(decimal.NewFromInt(1))

	err := f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.svc.Record(context.Background(), tx, o)
		return err
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInternal, pkgerrors.CodeOf(err))

	_, err = f.svc.Get(context.Background(), "ORD-bad")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListForIdentityIsNewestFirstAcrossPages(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{PageSize: 2})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"ORD-a", "ORD-b", "ORD-c", "ORD-d", "ORD-e"} {
		f.record(t, sampleOrder(id, "id-1", base.Add(time.Duration(i)*time.Minute)))
	}
	f.record(t, sampleOrder("ORD-other", "id-2", base.Add(time.Hour)))

	collect := func() []string {
		var ids []string
		for o, err := range f.svc.ListForIdentity(context.Background(), "id-1") {
			require.NoError(t, err)
			ids = append(ids, o.ID)
		}
		return ids
	}
	want := []string{"ORD-e", "ORD-d", "ORD-c", "ORD-b", "ORD-a"}
	assert.Equal(t, want, collect())
	assert.Equal(t, want, collect(), "each range restarts from the newest order")
}

func TestListForIdentityStopsEarly(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{PageSize: 2})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"ORD-a", "ORD-b", "ORD-c"} {
		f.record(t, sampleOrder(id, "id-1", base.Add(time.Duration(i)*time.Second)))
	}

	var seen []string
	for o, err := range f.svc.ListForIdentity(context.Background(), "id-1") {
		require.NoError(t, err)
		seen = append(seen, o.ID)
		break
	}
	assert.Equal(t, []string{"ORD-c"}, seen)
}

func TestListForIdentityEmpty(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{})
	count := 0
	for range f.svc.ListForIdentity(context.Background(), "nobody") {
		count++
	}
	assert.Zero(t, count)
}

func TestListPageCursorAndStatusFilter(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{})
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"ORD-1", "ORD-2", "ORD-3"} {
		f.record(t, sampleOrder(id, "id-1", base.Add(time.Duration(i)*time.Minute)))
	}

	first, err := f.svc.ListPage(ctx, Filter{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	assert.Equal(t, "ORD-3", first.Orders[0].ID)
	require.NotEmpty(t, first.NextCursor)

	second, err := f.svc.ListPage(ctx, Filter{}, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Equal(t, "ORD-1", second.Orders[0].ID)
	assert.Empty(t, second.NextCursor)

	_, err = f.svc.UpdateStatus(ctx, "ORD-2", enums.OrderStatusShipped)
	require.NoError(t, err)
	shipped, err := f.svc.ListPage(ctx, Filter{Status: enums.OrderStatusShipped}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, shipped.Orders, 1)
	assert.Equal(t, "ORD-2", shipped.Orders[0].ID)

	_, err = f.svc.ListPage(ctx, Filter{Status: "lost"}, pagination.Params{})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	_, err = f.svc.ListPage(ctx, Filter{}, pagination.Params{Cursor: "!!"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestGetForIdentityHidesForeignOrders(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{})
	f.record(t, sampleOrder("ORD-1", "id-1", time.Now()))

	_, err := f.svc.GetForIdentity(context.Background(), "id-2", "ORD-1")
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	got, err := f.svc.GetForIdentity(context.Background(), "id-1", "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", got.ID)
}

func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		name     string
		strict   bool
		from     enums.OrderStatus
		to       enums.OrderStatus
		wantCode pkgerrors.Code
	}{
		{name: "lenient allows backwards", from: enums.OrderStatusDelivered, to: enums.OrderStatusPending},
		{name: "strict allows forward", strict: true, from: enums.OrderStatusProcessing, to: enums.OrderStatusShipped},
		{name: "strict allows cancel", strict: true, from: enums.OrderStatusShipped, to: enums.OrderStatusCancelled},
		{name: "strict rejects backwards", strict: true, from: enums.OrderStatusShipped, to: enums.OrderStatusPending, wantCode: pkgerrors.CodeStateConflict},
		{name: "strict rejects leaving terminal", strict: true, from: enums.OrderStatusCancelled, to: enums.OrderStatusProcessing, wantCode: pkgerrors.CodeStateConflict},
		{name: "invalid status", from: enums.OrderStatusPending, to: "returned", wantCode: pkgerrors.CodeValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, config.OrdersConfig{StrictTransitions: tc.strict})
			o := sampleOrder("ORD-1", "id-1", time.Now())
			o.Status = tc.from
			f.record(t, o)

			got, err := f.svc.UpdateStatus(context.Background(), "ORD-1", tc.to)
			if tc.wantCode != "" {
				assert.Equal(t, tc.wantCode, pkgerrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.to, got.Status)

			pending, err := f.out.CountPending(f.db)
			require.NoError(t, err)
			assert.EqualValues(t, 2, pending)
		})
	}
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	f := newFixture(t, config.OrdersConfig{})
	_, err := f.svc.UpdateStatus(context.Background(), "ORD-missing", enums.OrderStatusShipped)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
