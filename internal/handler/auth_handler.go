package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /auth と /account
type AuthHandler struct {
	uc *usecase.AuthUsecase
}

func NewAuthHandler(uc *usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2" msg:"Name must be at least 2 characters"`
	Email    string `json:"email" validate:"required,email" msg:"Invalid email address"`
	Password string `json:"password" validate:"required,min=6" msg:"Password must be at least 6 characters"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" msg:"Invalid email address"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required" msg:"Refresh token is required"`
}

type ProfileRequest struct {
	Name  string `json:"name" validate:"required,min=2" msg:"Name must be at least 2 characters"`
	Phone string `json:"phone" validate:"omitempty,max=30"`
}

// limitは/auth（登録・ログイン・リフレッシュ）だけにかける。authはJWT系のmiddleware
func (h *AuthHandler) RegisterRoutes(e *echo.Echo, limit echo.MiddlewareFunc, auth ...echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/register", h.register, limit)
	g.POST("/login", h.login, limit)
	g.POST("/refresh", h.refresh, limit)
	g.POST("/logout", h.logout, auth...)

	acc := e.Group("/account", auth...)
	acc.GET("", h.me)
	acc.PUT("", h.updateProfile)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	u, err := h.uc.Register(c.Request().Context(), usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	out, err := h.uc.Login(c.Request().Context(), usecase.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) refresh(c echo.Context) error {
	var req RefreshRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	out, err := h.uc.Refresh(c.Request().Context(), usecase.RefreshInput{
		RefreshToken: req.RefreshToken,
		UserAgent:    c.Request().UserAgent(),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) logout(c echo.Context) error {
	if err := h.uc.Logout(c.Request().Context(), principal(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *AuthHandler) me(c echo.Context) error {
	u, err := h.uc.Me(c.Request().Context(), principal(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) updateProfile(c echo.Context) error {
	var req ProfileRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	u, err := h.uc.UpdateProfile(c.Request().Context(), principal(c), usecase.ProfileInput{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
