package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/crownleather-backend/api/middleware"
	"github.com/angelmondragon/crownleather-backend/api/responses"
	"github.com/angelmondragon/crownleather-backend/internal/orders"
	"github.com/angelmondragon/crownleather-backend/pkg/logger"
)

// OrdersList returns the caller's full order history, newest first.
func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		out := make([]orders.OrderDTO, 0)
		for order, err := range svc.ListForIdentity(ctx, middleware.IdentityIDFromContext(ctx)) {
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			out = append(out, order.DTO())
		}
		responses.WriteSuccess(w, out)
	}
}

func OrdersGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		order, err := svc.GetForIdentity(ctx, middleware.IdentityIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order.DTO())
	}
}
