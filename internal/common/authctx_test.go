package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printforge/marketplace-api/internal/common"
)

func serveIdentity(t *testing.T, headers map[string]string, wrap func(http.Handler) http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	var h http.Handler = inner
	if wrap != nil {
		h = wrap(inner)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	common.IdentityMiddleware(h).ServeHTTP(rec, req)
	return rec
}

func TestIdentityMiddlewarePropagatesUserAndRole(t *testing.T) {
	var gotID, gotRole string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = common.UserID(r.Context())
		gotRole, _ = common.UserRole(r.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("X-User-Role", "Admin")
	common.IdentityMiddleware(inner).ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "user-1", gotID)
	require.Equal(t, common.RoleAdmin, gotRole)
}

func TestRoleIgnoredWithoutIdentity(t *testing.T) {
	var hasRole bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasRole = common.UserRole(r.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Role", "admin")
	common.IdentityMiddleware(inner).ServeHTTP(httptest.NewRecorder(), req)

	require.False(t, hasRole, "a role header without an identity must not grant a role")
}

func TestRequireUserRejectsGuests(t *testing.T) {
	rec := serveIdentity(t, nil, common.RequireUser)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serveIdentity(t, map[string]string{"X-User-ID": "user-1"}, common.RequireUser)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAdminRejectsNonAdmins(t *testing.T) {
	rec := serveIdentity(t, map[string]string{"X-User-ID": "user-1"}, common.RequireAdmin)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = serveIdentity(t, map[string]string{"X-User-ID": "user-1", "X-User-Role": "designer"}, common.RequireAdmin)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = serveIdentity(t, map[string]string{"X-User-ID": "ops-1", "X-User-Role": "admin"}, common.RequireAdmin)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
