package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AddressHandler struct {
	uc *usecase.AddressUsecase
}

func NewAddressHandler(uc *usecase.AddressUsecase) *AddressHandler {
	return &AddressHandler{uc: uc}
}

type AddressRequest struct {
	FullName     string `json:"fullName" validate:"required,min=2" msg:"Full name is required"`
	Phone        string `json:"phone" validate:"required,min=10,max=15" msg:"Valid phone number required"`
	AddressLine1 string `json:"addressLine1" validate:"required,min=5" msg:"Address is required"`
	AddressLine2 string `json:"addressLine2" validate:"omitempty,max=255"`
	City         string `json:"city" validate:"required,min=2" msg:"City is required"`
	State        string `json:"state" validate:"required,min=2" msg:"State is required"`
	Pincode      string `json:"pincode" validate:"required,len=6,numeric" msg:"Valid pincode required"`
	IsDefault    bool   `json:"isDefault"`
}

func (r AddressRequest) toInput() usecase.AddressInput {
	return usecase.AddressInput{
		FullName:     r.FullName,
		Phone:        r.Phone,
		AddressLine1: r.AddressLine1,
		AddressLine2: r.AddressLine2,
		City:         r.City,
		State:        r.State,
		Pincode:      r.Pincode,
		IsDefault:    r.IsDefault,
	}
}

func (h *AddressHandler) RegisterRoutes(e *echo.Echo, auth ...echo.MiddlewareFunc) {
	g := e.Group("/addresses", auth...)

	g.GET("", h.list)
	g.POST("", h.create)
	g.PUT("/:addressId", h.update)
	g.DELETE("/:addressId", h.delete)
	g.PUT("/:addressId/default", h.setDefault)
}

func (h *AddressHandler) list(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context(), principal(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AddressHandler) create(c echo.Context) error {
	var req AddressRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	out, err := h.uc.Create(c.Request().Context(), principal(c), req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AddressHandler) update(c echo.Context) error {
	var req AddressRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	out, err := h.uc.Update(c.Request().Context(), principal(c), c.Param("addressId"), req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AddressHandler) delete(c echo.Context) error {
	if err := h.uc.Delete(c.Request().Context(), principal(c), c.Param("addressId")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *AddressHandler) setDefault(c echo.Context) error {
	if err := h.uc.SetDefault(c.Request().Context(), principal(c), c.Param("addressId")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
