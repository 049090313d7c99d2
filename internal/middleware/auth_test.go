package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookden/library-app/backend/internal/auth"
	"github.com/bookden/library-app/backend/internal/models"
)

const testSecret = "test-secret"

type stubChecker struct {
	revoked map[string]bool
}

func (s *stubChecker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return s.revoked[tokenID], nil
}

func okHandler(captured **auth.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := auth.FromContext(r.Context()); ok {
			*captured = p
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_ValidToken(t *testing.T) {
	tok, err := auth.IssueToken(testSecret, "user-1", models.RoleUser, time.Hour)
	require.NoError(t, err)

	var got *auth.Principal
	h := RequireAuth(testSecret, &stubChecker{})(okHandler(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)
}

func TestRequireAuth_MissingToken(t *testing.T) {
	var got *auth.Principal
	h := RequireAuth(testSecret, &stubChecker{})(okHandler(&got))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, got)
}

func TestRequireAuth_RevokedToken(t *testing.T) {
	tok, err := auth.IssueToken(testSecret, "user-1", models.RoleUser, time.Hour)
	require.NoError(t, err)
	p, err := auth.ParseToken(tok, testSecret)
	require.NoError(t, err)

	var got *auth.Principal
	checker := &stubChecker{revoked: map[string]bool{p.TokenID: true}}
	h := RequireAuth(testSecret, checker)(okHandler(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, got)
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name string
		role string
		want int
	}{
		{"admin_allowed", models.RoleAdmin, http.StatusOK},
		{"user_forbidden", models.RoleUser, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *auth.Principal
			h := RequireAdmin(okHandler(&got))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			ctx := auth.WithPrincipal(req.Context(), &auth.Principal{UserID: "u", Role: tt.role})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req.WithContext(ctx))

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireAdmin_NoPrincipal(t *testing.T) {
	var got *auth.Principal
	h := RequireAdmin(okHandler(&got))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
