package payments

import (
	"context"

	"github.com/shopspring/decimal"
)

// Status is the outcome of an authorization.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// LineItem describes one purchased line for the payment provider.
type LineItem struct {
	CatalogItemID int
	Name          string
	UnitPrice     decimal.Decimal
	Quantity      int
}

// AuthorizationRequest asks the provider to charge AmountMinor of Currency.
type AuthorizationRequest struct {
	OrderReference string
	IdentityID     string
	Email          string
	AmountMinor    int64
	Currency       string
	LineItems      []LineItem
	SourceID       string
	IdempotencyKey string
}

// AuthorizationResult reports a completed authorization. A declined charge is a
// result with StatusFailed, not an error; errors mean the outcome is unknown.
type AuthorizationResult struct {
	Status         Status
	ConfirmationID string
	Reason         string
}

func (r AuthorizationResult) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// Gateway is the external payment collaborator.
type Gateway interface {
	Authorize(ctx context.Context, req AuthorizationRequest) (AuthorizationResult, error)
}

// Func adapts a plain function to Gateway.
type Func func(ctx context.Context, req AuthorizationRequest) (AuthorizationResult, error)

func (f Func) Authorize(ctx context.Context, req AuthorizationRequest) (AuthorizationResult, error) {
	return f(ctx, req)
}

// ToMinor converts a two-decimal amount to integer cents.
func ToMinor(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}
