package server

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

func RegisterRoutes(e *echo.Echo, opts Options) {
	st := opts.Store

	// 認証: JWT検証→token_version照合。adminはさらにロール確認
	auth := []echo.MiddlewareFunc{
		middleware.AuthJWT(opts.JWTSecret),
		middleware.TokenVersionGuard(st.Users()),
	}
	admin := append(auth[:len(auth):len(auth)], middleware.AdminRoleGuard())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(opts.Metrics.Handler()))

	var orderOpts []usecase.OrderOption
	if opts.Locker != nil {
		orderOpts = append(orderOpts, usecase.WithCheckoutLocker(opts.Locker))
	}
	if opts.Events != nil {
		orderOpts = append(orderOpts, usecase.WithOrderEvents(opts.Events))
	}

	authUC := usecase.NewAuthUsecase(st.Users(), st.RefreshTokens(), opts.JWTSecret, opts.TokenTTL,
		opts.RefreshTokenTTL, opts.Log)
	catalogUC := usecase.NewCatalogUsecase(st.Products(), opts.Log)
	addressUC := usecase.NewAddressUsecase(st.Addresses(), opts.Log)
	cartUC := usecase.NewCartUsecase(st.TxManager(), st.Carts(), st.CartItems(), opts.Log)
	wishlistUC := usecase.NewWishlistUsecase(st.Wishlists(), st.Products(), opts.Log)
	orderUC := usecase.NewOrderUsecase(st.TxManager(), st.Addresses(), st.Orders(), st.OrderItems(),
		opts.Metrics, opts.Log, orderOpts...)
	adminOrderUC := usecase.NewAdminOrderUsecase(st.TxManager(), st.Orders(), st.OrderItems(), st.Users(),
		st.Addresses(), st.AuditLogs(), opts.Events, opts.Metrics, opts.Log)
	inventoryUC := usecase.NewAdminInventoryUsecase(st.TxManager(), st.Products(), opts.Metrics, opts.Log)

	handler.NewAuthHandler(authUC).RegisterRoutes(e, authRateLimiter(opts.AuthRateLimit), auth...)
	handler.NewProductHandler(catalogUC).RegisterRoutes(e)
	handler.NewAddressHandler(addressUC).RegisterRoutes(e, auth...)
	handler.NewCartHandler(cartUC).RegisterRoutes(e, auth...)
	handler.NewWishlistHandler(wishlistUC).RegisterRoutes(e, auth...)
	handler.NewOrderHandler(orderUC).RegisterRoutes(e, auth...)
	handler.NewAdminOrderHandler(adminOrderUC).RegisterRoutes(e, admin...)
	handler.NewAdminProductHandler(inventoryUC).RegisterRoutes(e, admin...)
}

// IP単位。0以下なら制限しない
func authRateLimiter(perSecond float64) echo.MiddlewareFunc {
	if perSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: echomw.NewRateLimiterMemoryStore(rate.Limit(perSecond)),
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, handler.ErrorResponse{Error: "Too many requests"})
		},
	})
}
