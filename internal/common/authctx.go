package common

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const (
	userIDKey   ctxKey = "identity/user-id"
	userRoleKey ctxKey = "identity/user-role"
)

// RoleAdmin marks operators allowed to drive order lifecycles.
const RoleAdmin = "admin"

// WithUserID stores the authenticated user identifier on the provided context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the authenticated user identifier from the context if present.
// Absence means guest checkout.
func UserID(ctx context.Context) (string, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// WithUserRole stores the asserted role on the provided context.
func WithUserRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, userRoleKey, role)
}

// UserRole extracts the asserted role from the context if present.
func UserRole(ctx context.Context) (string, bool) {
	v := ctx.Value(userRoleKey)
	if v == nil {
		return "", false
	}
	role, ok := v.(string)
	return role, ok && role != ""
}

// IdentityMiddleware propagates the user id and role asserted by the upstream
// identity collaborator. The service itself never authenticates; it only
// branches on presence or absence of an identity.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
			ctx = WithUserID(ctx, id)
			if role := strings.TrimSpace(r.Header.Get("X-User-Role")); role != "" {
				ctx = WithUserRole(ctx, strings.ToLower(role))
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects requests that carry no identity.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserID(r.Context()); !ok {
			JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects identified users that lack the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if role, ok := UserRole(r.Context()); !ok || role != RoleAdmin {
			JSONError(w, http.StatusForbidden, "FORBIDDEN", "admin role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
