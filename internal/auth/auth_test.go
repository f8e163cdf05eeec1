package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factorypulse-gateway/internal/config"
)

func newManager(t *testing.T) *AuthManager {
	t.Helper()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	return NewAuthManager(config.AuthConfig{
		Enabled:       true,
		JWTSecret:     "test-secret",
		JWTExpiration: 5,
		Users: []config.User{
			{Username: "alice", PasswordHash: hash, Role: "admin"},
			{Username: "otto", PasswordHash: hash, Role: "operator"},
		},
	})
}

func TestAuthenticateUser(t *testing.T) {
	am := newManager(t)

	role, err := am.AuthenticateUser("alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	role, err = am.AuthenticateUser("otto", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, RoleOperator, role)

	_, err = am.AuthenticateUser("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = am.AuthenticateUser("nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestJWTRoundTrip(t *testing.T) {
	am := newManager(t)

	token, err := am.GenerateJWT("alice", RoleAdmin)
	require.NoError(t, err)

	claims, err := am.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, RoleAdmin, claims.Role)

	other := NewAuthManager(config.AuthConfig{Enabled: true, JWTSecret: "other", JWTExpiration: 5})
	_, err = other.ValidateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	am := NewAuthManager(config.AuthConfig{Enabled: true, JWTSecret: "x", JWTExpiration: -1})
	token, err := am.GenerateJWT("alice", RoleAdmin)
	require.NoError(t, err)

	_, err = am.ValidateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func serve(am *AuthManager, header string) *httptest.ResponseRecorder {
	h := am.JWTMiddleware(RequireRole(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoleGating(t *testing.T) {
	am := newManager(t)

	admin, _ := am.GenerateJWT("alice", RoleAdmin)
	operator, _ := am.GenerateJWT("otto", RoleOperator)

	assert.Equal(t, http.StatusTeapot, serve(am, "Bearer "+admin).Code)
	assert.Equal(t, http.StatusForbidden, serve(am, "Bearer "+operator).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(am, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(am, "Token "+admin).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(am, "Bearer garbage").Code)
}

func TestDisabledAuthTreatsCallersAsAdmin(t *testing.T) {
	am := NewAuthManager(config.AuthConfig{Enabled: false})
	assert.Equal(t, http.StatusTeapot, serve(am, "").Code)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("Operator")
	require.NoError(t, err)
	assert.Equal(t, RoleOperator, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
}
