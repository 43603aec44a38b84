package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/crownleather-backend/api/middleware"
	"github.com/angelmondragon/crownleather-backend/api/responses"
	"github.com/angelmondragon/crownleather-backend/api/validators"
	"github.com/angelmondragon/crownleather-backend/internal/checkout"
	"github.com/angelmondragon/crownleather-backend/internal/orders"
	"github.com/angelmondragon/crownleather-backend/pkg/logger"
	"github.com/angelmondragon/crownleather-backend/pkg/types"
)

// Initiator runs one checkout attempt.
type Initiator interface {
	Initiate(ctx context.Context, req checkout.InitiateRequest) (orders.Order, error)
}

type checkoutRequest struct {
	ShippingAddress types.Address `json:"shippingAddress"`
	PaymentSourceID string        `json:"paymentSourceId" validate:"omitempty,max=255"`
}

// Checkout settles the caller's cart and returns the recorded order.
func Checkout(orch Initiator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		order, err := orch.Initiate(ctx, checkout.InitiateRequest{
			IdentityID:      middleware.IdentityIDFromContext(ctx),
			Email:           middleware.EmailFromContext(ctx),
			ShippingAddress: body.ShippingAddress,
			PaymentSourceID: body.PaymentSourceID,
			IdempotencyKey:  r.Header.Get(middleware.IdempotencyHeader),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order.DTO())
	}
}
