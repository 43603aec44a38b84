package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/crownleather-backend/internal/cart"
	"github.com/angelmondragon/crownleather-backend/internal/orders"
	"github.com/angelmondragon/crownleather-backend/internal/payments"
	pkgcheckout "github.com/angelmondragon/crownleather-backend/pkg/checkout"
	"github.com/angelmondragon/crownleather-backend/pkg/config"
	"github.com/angelmondragon/crownleather-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/crownleather-backend/pkg/errors"
	"github.com/angelmondragon/crownleather-backend/pkg/logger"
	"github.com/angelmondragon/crownleather-backend/pkg/metrics"
	"github.com/angelmondragon/crownleather-backend/pkg/types"
)

var (
	ErrUnauthenticated    = errors.New("checkout requires a session")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrDeclined           = errors.New("payment declined")
	ErrGateway            = errors.New("payment gateway unavailable")
)

const (
	defaultDeclineReason = "Payment failed. Please try again."
	// FreeConfirmationID marks orders whose total needed no authorization.
	FreeConfirmationID = "free"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartStore interface {
	Get(ctx context.Context, identityID string) (*cart.Ledger, error)
	Settle(ctx context.Context, identityID string, paid *cart.Ledger) error
}

type orderRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, order orders.Order) (orders.Order, error)
}

// InitiateRequest starts one checkout attempt for the identity's cart.
type InitiateRequest struct {
	IdentityID      string
	Email           string
	ShippingAddress types.Address
	PaymentSourceID string
	IdempotencyKey  string
}

type Params struct {
	Carts   cartStore
	Orders  orderRecorder
	Gateway payments.Gateway
	Tx      txRunner
	Guard   Guard
	Metrics *metrics.CheckoutMetrics
	Config  config.CheckoutConfig
	Logger  *logger.Logger
	Now     func() time.Time
}

// Orchestrator drives Idle -> AwaitingAuthorization -> Settled | Failed.
type Orchestrator struct {
	carts    cartStore
	orders   orderRecorder
	gateway  payments.Gateway
	tx       txRunner
	guard    Guard
	metrics  *metrics.CheckoutMetrics
	timeout  time.Duration
	currency string
	logg     *logger.Logger
	now      func() time.Time
}

func NewOrchestrator(p Params) (*Orchestrator, error) {
	switch {
	case p.Carts == nil:
		return nil, errors.New("cart service is required")
	case p.Orders == nil:
		return nil, errors.New("order recorder is required")
	case p.Gateway == nil:
		return nil, errors.New("payment gateway is required")
	case p.Tx == nil:
		return nil, errors.New("transaction runner is required")
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	}
	guard := p.Guard
	if guard == nil {
		guard = NewMemoryGuard()
	}
	timeout := p.Config.AuthorizationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	currency := strings.ToUpper(strings.TrimSpace(p.Config.Currency))
	if currency == "" {
		currency = "USD"
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		carts:    p.Carts,
		orders:   p.Orders,
		gateway:  p.Gateway,
		tx:       p.Tx,
		guard:    guard,
		metrics:  p.Metrics,
		timeout:  timeout,
		currency: currency,
		logg:     p.Logger,
		now:      now,
	}, nil
}

// Initiate runs one checkout attempt. On success the order is recorded and the
// paid quantities leave the cart. On any failure the cart is left as it was.
// A zero total settles without calling the gateway.
func (o *Orchestrator) Initiate(ctx context.Context, req InitiateRequest) (orders.Order, error) {
	identityID := strings.TrimSpace(req.IdentityID)
	if identityID == "" {
		o.metrics.IncAttempt(metrics.OutcomeRejected)
		return orders.Order{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, ErrUnauthenticated, "sign in to check out")
	}
	ctx = o.logg.WithIdentityID(ctx, identityID)

	release, err := o.guard.TryAcquire(ctx, identityID)
	if err != nil {
		o.metrics.IncAttempt(metrics.OutcomeRejected)
		if errors.Is(err, ErrCheckoutInProgress) {
			return orders.Order{}, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "checkout already in progress")
		}
		return orders.Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "acquire checkout lock")
	}
	defer release()

	ledger, err := o.carts.Get(ctx, identityID)
	if err != nil {
		o.metrics.IncAttempt(metrics.OutcomeRejected)
		return orders.Order{}, err
	}
	snapshot := ledger.Snapshot()
	if snapshot.IsEmpty() {
		o.metrics.IncAttempt(metrics.OutcomeRejected)
		return orders.Order{}, pkgerrors.Wrap(pkgerrors.CodeEmptyCart, ErrEmptyCart, "cart is empty")
	}

	shipping := req.ShippingAddress.Normalize()
	if err := pkgcheckout.ValidateShippingAddress(shipping); err != nil {
		o.metrics.IncAttempt(metrics.OutcomeRejected)
		return orders.Order{}, err
	}

	lines := make([]orders.LineItem, 0, snapshot.Len())
	payLines := make([]payments.LineItem, 0, snapshot.Len())
	for _, l := range snapshot.Lines() {
		lines = append(lines, orders.LineItem{
			CatalogItemID: l.Item.ID,
			Name:          l.Item.Name,
			UnitPrice:     l.Item.Price,
			Quantity:      l.Quantity,
		})
		payLines = append(payLines, payments.LineItem{
			CatalogItemID: l.Item.ID,
			Name:          l.Item.Name,
			UnitPrice:     l.Item.Price,
			Quantity:      l.Quantity,
		})
	}
	subtotal := snapshot.Total()
	tax, total := orders.ComputeTotals(subtotal)

	now := o.now().UTC()
	orderID := orders.NewOrderID(now)
	ctx = o.logg.WithOrderID(ctx, orderID)

	idemKey := gatewayKey(req.IdempotencyKey, orderID)

	result := payments.AuthorizationResult{Status: payments.StatusSucceeded, ConfirmationID: FreeConfirmationID}
	if total.IsPositive() {
		var err error
		result, err = o.authorize(ctx, payments.AuthorizationRequest{
			OrderReference: orderID,
			IdentityID:     identityID,
			Email:          req.Email,
			AmountMinor:    payments.ToMinor(total),
			Currency:       o.currency,
			LineItems:      payLines,
			SourceID:       req.PaymentSourceID,
			IdempotencyKey: idemKey,
		})
		if err != nil {
			return orders.Order{}, err
		}
	}

	// Payment is settled from here on. A caller hanging up must not stop the
	// order, its outbox event or the cart update from being written.
	ctx = context.WithoutCancel(ctx)

	order := orders.Order{
		ID:                    orderID,
		IdentityID:            identityID,
		LineItems:             lines,
		Subtotal:              subtotal,
		Tax:                   tax,
		Total:                 total,
		Currency:              o.currency,
		Status:                enums.OrderStatusProcessing,
		Shipping:              shipping,
		PaymentConfirmationID: result.ConfirmationID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	var recorded orders.Order
	err = o.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var recErr error
		recorded, recErr = o.orders.Record(ctx, tx, order)
		return recErr
	})
	if err != nil {
		o.metrics.IncAttempt(metrics.OutcomeRecordFailed)
		o.logg.Error(o.logg.WithField(ctx, "confirmation_id", result.ConfirmationID), "payment authorized but order not recorded", err)
		if pkgerrors.As(err) != nil {
			return orders.Order{}, err
		}
		return orders.Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record order")
	}

	if err := o.carts.Settle(ctx, identityID, snapshot); err != nil {
		o.logg.Warn(o.logg.WithField(ctx, "error", err.Error()), "order recorded but cart not cleared")
	}
	o.metrics.IncAttempt(metrics.OutcomeSettled)
	o.logg.Info(o.logg.WithField(ctx, "total", total.StringFixed(2)), "checkout settled")
	return recorded, nil
}

// authorize calls the gateway under the authorization timeout and maps every
// outcome other than success to a coded error.
func (o *Orchestrator) authorize(ctx context.Context, req payments.AuthorizationRequest) (payments.AuthorizationResult, error) {
	done := o.metrics.TrackInFlight()
	defer done()

	authCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	started := time.Now()
	result, err := o.gateway.Authorize(authCtx, req)
	elapsed := time.Since(started)

	if err != nil {
		o.metrics.IncAttempt(metrics.OutcomeGatewayError)
		o.metrics.ObserveAuthorization(metrics.OutcomeGatewayError, elapsed)
		message := "payment service unavailable"
		if errors.Is(authCtx.Err(), context.DeadlineExceeded) {
			message = "payment authorization timed out"
		}
		o.logg.Warn(o.logg.WithField(ctx, "error", err.Error()), message)
		return payments.AuthorizationResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("%w: %w", ErrGateway, err), message)
	}
	if !result.Succeeded() {
		reason := strings.TrimSpace(result.Reason)
		if reason == "" {
			reason = defaultDeclineReason
		}
		o.metrics.IncAttempt(metrics.OutcomeDeclined)
		o.metrics.ObserveAuthorization(metrics.OutcomeDeclined, elapsed)
		o.logg.Info(o.logg.WithField(ctx, "reason", reason), "payment declined")
		return payments.AuthorizationResult{}, pkgerrors.Wrap(pkgerrors.CodePaymentDeclined, ErrDeclined, reason).
			WithDetails(map[string]any{"reason": reason})
	}
	o.metrics.ObserveAuthorization(metrics.OutcomeSettled, elapsed)
	return result, nil
}

// gatewayKey scopes the client's key to this attempt so a retry after a
// decline reaches the provider as a new payment.
func gatewayKey(clientKey, orderID string) string {
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(clientKey+"/"+orderID)).String()
}
