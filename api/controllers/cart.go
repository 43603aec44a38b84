package controllers

import (
	"net/http"

	"github.com/angelmondragon/crownleather-backend/api/middleware"
	"github.com/angelmondragon/crownleather-backend/api/responses"
	"github.com/angelmondragon/crownleather-backend/api/validators"
	"github.com/angelmondragon/crownleather-backend/internal/cart"
	"github.com/angelmondragon/crownleather-backend/pkg/logger"
)

type addItemRequest struct {
	CatalogItemID int `json:"catalogItemId" validate:"required,gt=0"`
	Quantity      int `json:"quantity" validate:"required,min=1,max=99"`
}

// setQuantityRequest allows zero, which removes the line.
type setQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=99"`
}

func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ledger, err := svc.Get(r.Context(), middleware.IdentityIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ledger.DTO())
	}
}

func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ledger, err := svc.AddItem(r.Context(), middleware.IdentityIDFromContext(r.Context()), body.CatalogItemID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ledger.DTO())
	}
}

func CartSetQuantity(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := intParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body setQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ledger, err := svc.SetQuantity(r.Context(), middleware.IdentityIDFromContext(r.Context()), itemID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ledger.DTO())
	}
}

func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := intParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ledger, err := svc.RemoveItem(r.Context(), middleware.IdentityIDFromContext(r.Context()), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ledger.DTO())
	}
}

func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Clear(r.Context(), middleware.IdentityIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
