package middleware

import "context"

type contextKey string

const (
	ctxIdentityID contextKey = "identity_id"
	ctxRole       contextKey = "actor_role"
	ctxEmail      contextKey = "email"
	ctxAccessID   contextKey = "access_id"
)

func stringFrom(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

func IdentityIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, ctxIdentityID)
}

func RoleFromContext(ctx context.Context) string {
	return stringFrom(ctx, ctxRole)
}

func EmailFromContext(ctx context.Context) string {
	return stringFrom(ctx, ctxEmail)
}

// AccessIDFromContext returns the session id (token jti) of the caller.
func AccessIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, ctxAccessID)
}

// WithIdentity injects an authenticated caller into the context.
func WithIdentity(ctx context.Context, identityID, role, email, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxIdentityID, identityID)
	ctx = context.WithValue(ctx, ctxRole, role)
	ctx = context.WithValue(ctx, ctxEmail, email)
	return context.WithValue(ctx, ctxAccessID, accessID)
}
