package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type WishlistHandler struct {
	uc *usecase.WishlistUsecase
}

func NewWishlistHandler(uc *usecase.WishlistUsecase) *WishlistHandler {
	return &WishlistHandler{uc: uc}
}

type WishlistToggleRequest struct {
	ProductID string `json:"productId" validate:"required" msg:"Product ID is required"`
}

type wishlistToggleResponse struct {
	Wishlisted bool `json:"wishlisted"`
}

func (h *WishlistHandler) RegisterRoutes(e *echo.Echo, auth ...echo.MiddlewareFunc) {
	g := e.Group("/wishlist", auth...)

	g.GET("", h.list)
	g.POST("", h.toggle)
	g.DELETE("", h.remove)
}

func (h *WishlistHandler) list(c echo.Context) error {
	items, err := h.uc.List(c.Request().Context(), principal(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": items})
}

// 追加なら201、解除なら200
func (h *WishlistHandler) toggle(c echo.Context) error {
	var req WishlistToggleRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	on, err := h.uc.Toggle(c.Request().Context(), principal(c), req.ProductID)
	if err != nil {
		return writeError(c, err)
	}
	if on {
		return c.JSON(http.StatusCreated, wishlistToggleResponse{Wishlisted: true})
	}
	return c.JSON(http.StatusOK, wishlistToggleResponse{Wishlisted: false})
}

func (h *WishlistHandler) remove(c echo.Context) error {
	if err := h.uc.Remove(c.Request().Context(), principal(c), c.QueryParam("productId")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
