package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type VariantCreateRequest struct {
	Size     string `json:"size" validate:"required" msg:"Variant size is required"`
	Color    string `json:"color" validate:"required" msg:"Variant color is required"`
	ColorHex string `json:"colorHex" validate:"omitempty,hexcolor" msg:"Invalid color code"`
	Stock    int64  `json:"stock" validate:"gte=0" msg:"Stock cannot be negative"`
}

// 価格は最小通貨単位
type ProductCreateRequest struct {
	Name         string                 `json:"name" validate:"required,min=2" msg:"Product name is required"`
	Description  string                 `json:"description"`
	Brand        string                 `json:"brand"`
	CategorySlug string                 `json:"categorySlug"`
	BasePrice    int64                  `json:"basePrice" validate:"gt=0" msg:"Base price must be positive"`
	SellingPrice int64                  `json:"sellingPrice" validate:"gt=0" msg:"Selling price must be positive"`
	Status       string                 `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE ARCHIVED" msg:"Invalid product status"`
	Variants     []VariantCreateRequest `json:"variants" validate:"dive"`
}

// deltaは増減量（マイナスで減らす）
type InventoryUpdateRequest struct {
	Delta  int64  `json:"delta" validate:"required" msg:"Delta must not be zero"`
	Reason string `json:"reason" validate:"required,max=255" msg:"Reason is required"`
}

// /admin/products と /admin/inventory をまとめる
type AdminProductHandler struct {
	uc *usecase.AdminInventoryUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.AdminInventoryUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

// adminを登録
func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, admin ...echo.MiddlewareFunc) {
	g := e.Group("/admin", admin...)

	g.POST("/products", h.createProduct)
	g.PUT("/inventory/:variantId", h.adjustInventory)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	var req ProductCreateRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	in := usecase.CreateProductInput{
		Name:         req.Name,
		Description:  req.Description,
		Brand:        req.Brand,
		CategorySlug: req.CategorySlug,
		BasePrice:    req.BasePrice,
		SellingPrice: req.SellingPrice,
		Status:       req.Status,
	}
	for _, v := range req.Variants {
		in.Variants = append(in.Variants, usecase.VariantInput{
			Size:     v.Size,
			Color:    v.Color,
			ColorHex: v.ColorHex,
			Stock:    v.Stock,
		})
	}

	out, err := h.uc.CreateProduct(c.Request().Context(), principal(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminProductHandler) adjustInventory(c echo.Context) error {
	var req InventoryUpdateRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	out, err := h.uc.AdjustStock(c.Request().Context(), principal(c), c.Param("variantId"), usecase.AdjustStockInput{
		Delta:  req.Delta,
		Reason: req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
