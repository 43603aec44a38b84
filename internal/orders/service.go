package orders

import (
	"context"
	"errors"
	"iter"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/crownleather-backend/pkg/config"
	"github.com/angelmondragon/crownleather-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/crownleather-backend/pkg/errors"
	"github.com/angelmondragon/crownleather-backend/pkg/logger"
	"github.com/angelmondragon/crownleather-backend/pkg/outbox"
	"github.com/angelmondragon/crownleather-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/crownleather-backend/pkg/pagination"
)

var (
	// ErrNotFound is returned for unknown order ids.
	ErrNotFound = errors.New("order not found")
	// ErrDuplicateOrder means an order id was recorded twice.
	ErrDuplicateOrder = errors.New("duplicate order id")
	// ErrInvalidTransition is returned when strict transitions reject a status change.
	ErrInvalidTransition = errors.New("order status transition not allowed")
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the append-only order history plus its admin surface.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, order Order) (Order, error)
	Get(ctx context.Context, orderID string) (Order, error)
	GetForIdentity(ctx context.Context, identityID, orderID string) (Order, error)
	ListForIdentity(ctx context.Context, identityID string) iter.Seq2[Order, error]
	ListPage(ctx context.Context, filter Filter, params pagination.Params) (Page, error)
	UpdateStatus(ctx context.Context, orderID string, status enums.OrderStatus) (Order, error)
	CustomerSummaries(ctx context.Context) ([]CustomerSummary, error)
	SalesSummary(ctx context.Context) (SalesSummary, error)
}

type ServiceParams struct {
	Repo   *Repository
	Tx     txRunner
	Outbox outbox.Emitter
	Config config.OrdersConfig
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	repo     *Repository
	tx       txRunner
	outbox   outbox.Emitter
	strict   bool
	pageSize int
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, errors.New("orders repository is required")
	}
	if p.Tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if p.Outbox == nil {
		return nil, errors.New("outbox emitter is required")
	}
	if p.Logger == nil {
		return nil, errors.New("logger is required")
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     p.Repo,
		tx:       p.Tx,
		outbox:   p.Outbox,
		strict:   p.Config.StrictTransitions,
		pageSize: pagination.NormalizeLimit(p.Config.PageSize),
		logg:     p.Logger,
		now:      now,
	}, nil
}

// Record appends order inside tx and queues its order_created event in the same transaction.
func (s *service) Record(ctx context.Context, tx *gorm.DB, order Order) (Order, error) {
	if tx == nil {
		return Order{}, pkgerrors.New(pkgerrors.CodeInternal, "record order requires a transaction")
	}
	if err := CheckTotals(order); err != nil {
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order totals inconsistent")
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.now().UTC()
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}
	if order.Status == "" {
		order.Status = enums.OrderStatusProcessing
	}

	row := toModel(order)
	if err := s.repo.WithTx(tx).Insert(ctx, &row); err != nil {
		if errors.Is(err, ErrDuplicateOrder) {
			return Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order already recorded")
		}
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert order")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{IdentityID: order.IdentityID, Role: string(enums.RoleCustomer)},
		Data:          orderCreatedPayload(order),
		OccurredAt:    order.CreatedAt,
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue order event")
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID string) (Order, error) {
	row, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Order{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, "order not found")
		}
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return fromModel(*row), nil
}

// GetForIdentity hides orders owned by someone else behind NotFound.
func (s *service) GetForIdentity(ctx context.Context, identityID, orderID string) (Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if order.IdentityID != identityID {
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, "order not found")
	}
	return order, nil
}

// ListForIdentity yields the identity's orders newest first. Pages are fetched
// lazily as the caller ranges; every range starts a fresh query.
func (s *service) ListForIdentity(ctx context.Context, identityID string) iter.Seq2[Order, error] {
	return func(yield func(Order, error) bool) {
		filter := Filter{IdentityID: identityID}
		var cursor *pagination.Cursor
		for {
			rows, err := s.repo.ListPage(ctx, filter, cursor, s.pageSize)
			if err != nil {
				yield(Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders"))
				return
			}
			for _, row := range rows {
				if !yield(fromModel(row), nil) {
					return
				}
			}
			if len(rows) < s.pageSize {
				return
			}
			last := rows[len(rows)-1]
			cursor = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
		}
	}
}

func (s *service) ListPage(ctx context.Context, filter Filter, params pagination.Params) (Page, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return Page{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter").
			WithDetails(map[string]any{"status": filter.Status})
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListPage(ctx, filter, cursor, limit+1)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	page := Page{Orders: make([]Order, 0, min(len(rows), limit))}
	if len(rows) > limit {
		last := rows[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		rows = rows[:limit]
	}
	for _, row := range rows {
		page.Orders = append(page.Orders, fromModel(row))
	}
	return page, nil
}

// UpdateStatus changes the fulfillment status and queues order_status_changed.
// With strict transitions enabled only forward moves are accepted.
func (s *service) UpdateStatus(ctx context.Context, orderID string, status enums.OrderStatus) (Order, error) {
	if !status.IsValid() {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"status": status})
	}

	var from enums.OrderStatus
	var identityID string
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		from, identityID = row.Status, row.IdentityID
		if from == status {
			return nil
		}
		if s.strict && !from.CanAdvanceTo(status) {
			return ErrInvalidTransition
		}

		at := s.now().UTC()
		if err := repo.UpdateStatus(ctx, orderID, status, at); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:    orderID,
				IdentityID: identityID,
				From:       from,
				To:         status,
				ChangedAt:  at,
			},
			OccurredAt: at,
		})
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, "order not found")
	case errors.Is(err, ErrInvalidTransition):
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "order status transition not allowed").
			WithDetails(map[string]any{"from": from, "to": status})
	case err != nil:
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id": orderID,
		"from":     from,
		"to":       status,
	}), "order status updated")
	return s.Get(ctx, orderID)
}

func orderCreatedPayload(o Order) payloads.OrderCreatedEvent {
	lines := make([]payloads.OrderLine, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		lines = append(lines, payloads.OrderLine{
			CatalogItemID: li.CatalogItemID,
			Name:          li.Name,
			UnitPrice:     li.UnitPrice.StringFixed(2),
			Quantity:      li.Quantity,
		})
	}
	return payloads.OrderCreatedEvent{
		OrderID:               o.ID,
		IdentityID:            o.IdentityID,
		Subtotal:              o.Subtotal.StringFixed(2),
		Tax:                   o.Tax.StringFixed(2),
		Total:                 o.Total.StringFixed(2),
		Currency:              o.Currency,
		Status:                o.Status,
		PaymentConfirmationID: o.PaymentConfirmationID,
		Lines:                 lines,
		CreatedAt:             o.CreatedAt,
	}
}
