package controllers

import (
	"net/http"

	"github.com/angelmondragon/crownleather-backend/api/middleware"
	"github.com/angelmondragon/crownleather-backend/api/responses"
	"github.com/angelmondragon/crownleather-backend/api/validators"
	"github.com/angelmondragon/crownleather-backend/internal/identity"
	"github.com/angelmondragon/crownleather-backend/pkg/logger"
)

const tokenHeader = "X-Crown-Token"

// AuthRegister creates an account and opens its first session.
func AuthRegister(gate identity.Gate, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body identity.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := gate.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(tokenHeader, sess.AccessToken)
		responses.WriteSuccessStatus(w, http.StatusCreated, sess)
	}
}

func AuthLogin(gate identity.Gate, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body identity.AuthenticateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := gate.Authenticate(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(tokenHeader, sess.AccessToken)
		responses.WriteSuccess(w, sess)
	}
}

func AdminAuthLogin(gate identity.Gate, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body identity.AuthenticateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := gate.AuthenticateAdmin(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(tokenHeader, sess.AccessToken)
		responses.WriteSuccess(w, sess)
	}
}

// AuthLogout ends the caller's session. The account stays registered.
func AuthLogout(gate identity.Gate, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := gate.EndSession(r.Context(), middleware.AccessIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func AuthMe(gate identity.Gate, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		who, err := gate.CurrentSession(r.Context(), middleware.AccessIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, who)
	}
}
