package middleware

import (
	"net/http"

	"github.com/angelmondragon/crownleather-backend/api/responses"
	"github.com/angelmondragon/crownleather-backend/api/validators"
	pkgAuth "github.com/angelmondragon/crownleather-backend/pkg/auth"
	"github.com/angelmondragon/crownleather-backend/pkg/auth/session"
	"github.com/angelmondragon/crownleather-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/crownleather-backend/pkg/errors"
	"github.com/angelmondragon/crownleather-backend/pkg/logger"
)

// Auth validates a bearer token, checks that its session was not ended and
// seeds the request context with the caller.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := validators.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session ended"))
					return
				}
			}

			ctx := WithIdentity(r.Context(), claims.IdentityID, string(claims.Role), claims.Email, claims.ID)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"identity_id": claims.IdentityID,
					"actor_role":  string(claims.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
