package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/memory"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// JWTの代わりにヘッダーからprincipalを入れる
func fakeAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get("X-Test-User")
		if id == "" {
			return c.JSON(http.StatusUnauthorized, handler.ErrorResponse{Error: "Unauthorized"})
		}
		c.Set(middleware.CtxPrincipalKey, usecase.Principal{
			UserID: id,
			Role:   model.Role(c.Request().Header.Get("X-Test-Role")),
		})
		return next(c)
	}
}

type testServer struct {
	e     *echo.Echo
	store *memory.Store
	ctx   context.Context
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	m := metrics.New(nil)
	log := zap.NewNop()

	e := echo.New()
	e.Validator = validator.New()

	orderUC := usecase.NewOrderUsecase(store.TxManager(), store.Addresses(), store.Orders(), store.OrderItems(), m, log)
	adminOrderUC := usecase.NewAdminOrderUsecase(store.TxManager(), store.Orders(), store.OrderItems(), store.Users(),
		store.Addresses(), store.AuditLogs(), nil, m, log)

	admin := []echo.MiddlewareFunc{fakeAuth, middleware.AdminRoleGuard()}
	noLimit := func(next echo.HandlerFunc) echo.HandlerFunc { return next }

	handler.NewAuthHandler(usecase.NewAuthUsecase(store.Users(), store.RefreshTokens(), "secret", time.Minute, time.Hour, log)).RegisterRoutes(e, noLimit, fakeAuth)
	handler.NewProductHandler(usecase.NewCatalogUsecase(store.Products(), log)).RegisterRoutes(e)
	handler.NewAddressHandler(usecase.NewAddressUsecase(store.Addresses(), log)).RegisterRoutes(e, fakeAuth)
	handler.NewCartHandler(usecase.NewCartUsecase(store.TxManager(), store.Carts(), store.CartItems(), log)).RegisterRoutes(e, fakeAuth)
	handler.NewWishlistHandler(usecase.NewWishlistUsecase(store.Wishlists(), store.Products(), log)).RegisterRoutes(e, fakeAuth)
	handler.NewOrderHandler(orderUC).RegisterRoutes(e, fakeAuth)
	handler.NewAdminOrderHandler(adminOrderUC).RegisterRoutes(e, admin...)
	handler.NewAdminProductHandler(usecase.NewAdminInventoryUsecase(store.TxManager(), store.Products(), m, log)).RegisterRoutes(e, admin...)

	return &testServer{e: e, store: store, ctx: context.Background()}
}

func (s *testServer) do(t *testing.T, method, path, body string, p usecase.Principal) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if p.UserID != "" {
		req.Header.Set("X-Test-User", p.UserID)
		req.Header.Set("X-Test-Role", string(p.Role))
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) user(t *testing.T, email string, role model.Role) usecase.Principal {
	t.Helper()
	u := &model.User{Name: "Test", Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, s.store.Users().Create(s.ctx, u))
	return usecase.Principal{UserID: u.ID, Role: role}
}

func (s *testServer) variant(t *testing.T, stock int64) model.ProductVariant {
	t.Helper()
	p, err := s.store.Products().Create(s.ctx, model.Product{
		Name: "Classic Tee", Slug: "classic-tee", BasePrice: 59900, SellingPrice: 49900,
		Status:   model.ProductStatusActive,
		Variants: []model.ProductVariant{{Size: "M", Color: "Black", Stock: stock}},
	})
	require.NoError(t, err)
	return p.Variants[0]
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body handler.ErrorResponse
	decode(t, rec, &body)
	return body.Error
}

const addressJSON = `{"fullName":"Asha Rao","phone":"9876543210","addressLine1":"12 MG Road","city":"Bengaluru","state":"Karnataka","pincode":"560001","isDefault":true}`

// 住所作成→カート追加→チェックアウト→管理者が発送まで進める
func TestCheckoutAndFulfilmentFlow(t *testing.T) {
	s := newTestServer(t)
	cust := s.user(t, "asha@example.com", model.RoleCustomer)
	admin := s.user(t, "admin@example.com", model.RoleAdmin)
	v := s.variant(t, 5)

	rec := s.do(t, http.MethodPost, "/addresses", addressJSON, cust)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var addr model.Address
	decode(t, rec, &addr)

	rec = s.do(t, http.MethodPost, "/cart", `{"variantId":"`+v.ID+`","quantity":2}`, cust)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/cart", "", cust)
	require.Equal(t, http.StatusOK, rec.Code)
	var cart usecase.CartView
	decode(t, rec, &cart)
	assert.Equal(t, int64(99800), cart.Subtotal)

	rec = s.do(t, http.MethodPost, "/checkout", `{"addressId":"`+addr.ID+`"}`, cust)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var placed struct {
		OrderID string `json:"orderId"`
	}
	decode(t, rec, &placed)
	require.NotEmpty(t, placed.OrderID)

	rec = s.do(t, http.MethodGet, "/orders/"+placed.OrderID, "", cust)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail map[string]interface{}
	decode(t, rec, &detail)
	assert.Equal(t, "PENDING", detail["status"])
	assert.Equal(t, float64(99800), detail["totalAmount"])

	rec = s.do(t, http.MethodPut, "/admin/orders/"+placed.OrderID, `{"status":"CONFIRMED"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPut, "/admin/orders/"+placed.OrderID, `{"status":"SHIPPED","trackingNumber":"DL123"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var shipped model.Order
	decode(t, rec, &shipped)
	assert.Equal(t, model.OrderStatusShipped, shipped.Status)
	require.NotNil(t, shipped.TrackingNumber)
	assert.Equal(t, "DL123", *shipped.TrackingNumber)

	rec = s.do(t, http.MethodPut, "/admin/orders/"+placed.OrderID, `{"status":"PENDING"}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cannot transition from SHIPPED to PENDING", errorOf(t, rec))

	rec = s.do(t, http.MethodGet, "/admin/orders/"+placed.OrderID, "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var adminDetail usecase.AdminOrderDetail
	decode(t, rec, &adminDetail)
	assert.Len(t, adminDetail.History, 2)
	assert.Equal(t, "asha@example.com", adminDetail.Customer.Email)
}

func TestCheckoutErrors(t *testing.T) {
	s := newTestServer(t)
	cust := s.user(t, "asha@example.com", model.RoleCustomer)

	rec := s.do(t, http.MethodPost, "/checkout", `{"addressId":"nope"}`, cust)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid address", errorOf(t, rec))

	rec = s.do(t, http.MethodPost, "/addresses", addressJSON, cust)
	require.Equal(t, http.StatusCreated, rec.Code)
	var addr model.Address
	decode(t, rec, &addr)

	rec = s.do(t, http.MethodPost, "/checkout", `{"addressId":"`+addr.ID+`"}`, cust)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cart is empty", errorOf(t, rec))

	rec = s.do(t, http.MethodPost, "/checkout", `{"addressId":`, cust)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/checkout", `{"addressId":"`+addr.ID+`"}`, usecase.Principal{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	cust := s.user(t, "asha@example.com", model.RoleCustomer)

	rec := s.do(t, http.MethodGet, "/admin/orders", "", cust)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodPut, "/admin/orders/x", `{"status":"CONFIRMED"}`, cust)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodGet, "/admin/orders", "", usecase.Principal{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminOrderUpdate_Validation(t *testing.T) {
	s := newTestServer(t)
	admin := s.user(t, "admin@example.com", model.RoleAdmin)

	rec := s.do(t, http.MethodPut, "/admin/orders/x", `{}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Status is required", errorOf(t, rec))

	rec = s.do(t, http.MethodPut, "/admin/orders/x", `{"status":"CONFIRMED"}`, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", errorOf(t, rec))
}

func TestCartValidation(t *testing.T) {
	s := newTestServer(t)
	cust := s.user(t, "asha@example.com", model.RoleCustomer)
	v := s.variant(t, 1)

	rec := s.do(t, http.MethodPost, "/cart", `{"quantity":1}`, cust)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Variant ID is required", errorOf(t, rec))

	rec = s.do(t, http.MethodPost, "/cart", `{"variantId":"`+v.ID+`","quantity":2}`, cust)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Not enough stock available", errorOf(t, rec))

	rec = s.do(t, http.MethodPost, "/cart", `{"variantId":"`+v.ID+`"}`, cust)
	require.Equal(t, http.StatusCreated, rec.Code)
	var item model.CartItem
	decode(t, rec, &item)
	assert.Equal(t, int64(1), item.Quantity)

	rec = s.do(t, http.MethodPut, "/cart/"+item.ID, `{"quantity":0}`, cust)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Quantity must be at least 1", errorOf(t, rec))
}

func TestAddressValidation(t *testing.T) {
	s := newTestServer(t)
	cust := s.user(t, "asha@example.com", model.RoleCustomer)

	rec := s.do(t, http.MethodPost, "/addresses", strings.Replace(addressJSON, `"560001"`, `"5600"`, 1), cust)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Valid pincode required", errorOf(t, rec))
}

func TestWishlistToggleStatus(t *testing.T) {
	s := newTestServer(t)
	cust := s.user(t, "asha@example.com", model.RoleCustomer)
	v := s.variant(t, 1)

	rec := s.do(t, http.MethodPost, "/wishlist", `{"productId":"`+v.ProductID+`"}`, cust)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"wishlisted":true}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/wishlist", `{"productId":"`+v.ProductID+`"}`, cust)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"wishlisted":false}`, rec.Body.String())
}

func TestAuthRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/register", `{"name":"Asha","email":"asha@example.com","password":"secret1"}`, usecase.Principal{})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/auth/register", `{"name":"Asha","email":"asha@example.com","password":"secret1"}`, usecase.Principal{})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/register", `{"name":"Asha","email":"asha@example.com","password":"123"}`, usecase.Principal{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password must be at least 6 characters", errorOf(t, rec))

	rec = s.do(t, http.MethodPost, "/auth/login", `{"email":"asha@example.com","password":"secret1"}`, usecase.Principal{})
	require.Equal(t, http.StatusOK, rec.Code)
	var out usecase.LoginOutput
	decode(t, rec, &out)
	assert.NotEmpty(t, out.Token.AccessToken)

	rec = s.do(t, http.MethodPost, "/auth/login", `{"email":"asha@example.com","password":"wrong1"}`, usecase.Principal{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProducts(t *testing.T) {
	s := newTestServer(t)
	s.variant(t, 3)

	rec := s.do(t, http.MethodGet, "/products?limit=5", "", usecase.Principal{})
	require.Equal(t, http.StatusOK, rec.Code)
	var page usecase.Page[model.Product]
	decode(t, rec, &page)
	assert.Equal(t, int64(1), page.Total)

	rec = s.do(t, http.MethodGet, "/products?page=abc", "", usecase.Principal{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/products/classic-tee", "", usecase.Principal{})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/products/nope", "", usecase.Principal{})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/categories", "", usecase.Principal{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"categories":[]}`, rec.Body.String())
}
