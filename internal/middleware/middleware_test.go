package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/memory"
	"storefront/internal/metrics"
	"storefront/internal/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims(sub, role string, tv int) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"tv":   tv,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
}

// principalを返すだけのハンドラ
func whoami(c echo.Context) error {
	p := middleware.PrincipalFrom(c)
	return c.JSON(http.StatusOK, map[string]string{"userId": p.UserID, "role": string(p.Role)})
}

func serve(e *echo.Echo, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthJWT(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, middleware.AuthJWT(secret))

	tests := []struct {
		name   string
		authz  string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), validClaims("u1", "CUSTOMER", 0)), http.StatusUnauthorized},
		{"wrong alg", "Bearer " + sign(t, jwt.SigningMethodHS512, []byte(secret), validClaims("u1", "CUSTOMER", 0)), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "u1", "role": "CUSTOMER", "tv": 0, "exp": time.Now().Add(-time.Minute).Unix()}), http.StatusUnauthorized},
		{"missing tv", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "u1", "role": "CUSTOMER"}), http.StatusUnauthorized},
		{"ok", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims("u1", "CUSTOMER", 0)), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, tt.authz)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
			}
		})
	}
}

func TestAdminRoleGuard(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, middleware.AuthJWT(secret), middleware.AdminRoleGuard())

	rec := serve(e, "Bearer "+sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims("u1", "CUSTOMER", 0)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Admin only"}`, rec.Body.String())

	rec = serve(e, "Bearer "+sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims("u1", "ADMIN", 0)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenVersionGuard(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	u := &model.User{Name: "Asha", Email: "asha@example.com", PasswordHash: "x", Role: model.RoleCustomer}
	require.NoError(t, store.Users().Create(ctx, u))

	e := echo.New()
	e.GET("/me", whoami, middleware.AuthJWT(secret), middleware.TokenVersionGuard(store.Users()))

	token := "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims(u.ID, "CUSTOMER", 0))
	rec := serve(e, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), u.ID)

	// ログアウト後の古いトークンは使えない
	require.NoError(t, store.Users().IncrementTokenVersion(ctx, u.ID))
	rec = serve(e, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// 存在しないユーザー
	rec = serve(e, "Bearer "+sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims("ghost", "CUSTOMER", 0)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenVersionGuard_RoleFromDatabase(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	u := &model.User{Name: "Asha", Email: "asha@example.com", PasswordHash: "x", Role: model.RoleCustomer}
	require.NoError(t, store.Users().Create(ctx, u))

	e := echo.New()
	e.GET("/me", whoami, middleware.AuthJWT(secret), middleware.TokenVersionGuard(store.Users()), middleware.AdminRoleGuard())

	// トークンのroleを書き換えてもDBがCUSTOMERなら403
	rec := serve(e, "Bearer "+sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims(u.ID, "ADMIN", 0)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMetrics(t *testing.T) {
	m := metrics.New(nil)
	e := echo.New()
	e.Use(middleware.Metrics(m))
	e.GET("/orders/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/"+id, nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/orders/:id", "204")))
}
