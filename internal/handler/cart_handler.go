package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	VariantID string `json:"variantId" validate:"required" msg:"Variant ID is required"`
	//省略時は1
	Quantity int64 `json:"quantity" validate:"omitempty,min=1" msg:"Quantity must be at least 1"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity" validate:"min=1" msg:"Quantity must be at least 1"`
}

// /cart, /cart/{itemId} を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo, auth ...echo.MiddlewareFunc) {
	g := e.Group("/cart", auth...)

	g.GET("", h.getCart)
	g.POST("", h.addToCart)
	g.PUT("/:itemId", h.updateItem)
	g.DELETE("/:itemId", h.deleteItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	out, err := h.uc.GetCart(c.Request().Context(), principal(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	var req AddCartRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	out, err := h.uc.AddItem(c.Request().Context(), principal(c), usecase.AddCartItemInput{
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *CartHandler) updateItem(c echo.Context) error {
	var req UpdateCartItemRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	if err := h.uc.UpdateItem(c.Request().Context(), principal(c), c.Param("itemId"), req.Quantity); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	if err := h.uc.RemoveItem(c.Request().Context(), principal(c), c.Param("itemId")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
