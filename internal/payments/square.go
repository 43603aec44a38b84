package payments

import (
	"context"
	"errors"
	"strings"

	sq "github.com/square/square-go-sdk"

	pkgerrors "github.com/angelmondragon/crownleather-backend/pkg/errors"
	"github.com/angelmondragon/crownleather-backend/pkg/square"
)

// sandboxCardNonce is Square's sandbox test nonce for an approved card.
const sandboxCardNonce = "cnon:card-nonce-ok"

type squarePayments interface {
	CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error)
	Environment() string
}

// SquareGateway authorizes through the Square Payments API.
type SquareGateway struct {
	client squarePayments
}

func NewSquareGateway(client squarePayments) (*SquareGateway, error) {
	if client == nil {
		return nil, errors.New("square client is required")
	}
	return &SquareGateway{client: client}, nil
}

func (g *SquareGateway) Authorize(ctx context.Context, req AuthorizationRequest) (AuthorizationResult, error) {
	source := strings.TrimSpace(req.SourceID)
	if source == "" {
		if g.client.Environment() != "sandbox" {
			return AuthorizationResult{Status: StatusFailed, Reason: "payment source is required"}, nil
		}
		source = sandboxCardNonce
	}

	payment, err := g.client.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents:    req.AmountMinor,
		Currency:       req.Currency,
		SourceID:       source,
		IdempotencyKey: req.IdempotencyKey,
		ReferenceID:    req.OrderReference,
		BuyerEmail:     req.Email,
		Note:           "Crown Leather order " + req.OrderReference,
	})
	if err != nil {
		if pkgerrors.CodeOf(err) == pkgerrors.CodePaymentDeclined {
			return AuthorizationResult{Status: StatusFailed, Reason: declineReason(err)}, nil
		}
		return AuthorizationResult{}, err
	}

	status := ""
	if payment.GetStatus() != nil {
		status = *payment.GetStatus()
	}
	switch status {
	case "COMPLETED", "APPROVED":
		id := ""
		if payment.GetID() != nil {
			id = *payment.GetID()
		}
		return AuthorizationResult{Status: StatusSucceeded, ConfirmationID: id}, nil
	default:
		return AuthorizationResult{Status: StatusFailed, Reason: "payment " + strings.ToLower(status)}, nil
	}
}

func declineReason(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		if details, ok := typed.Details().(map[string]any); ok {
			if reason, ok := details["reason"].(string); ok && reason != "" {
				return strings.ToLower(strings.ReplaceAll(reason, "_", " "))
			}
		}
	}
	return "card declined"
}
