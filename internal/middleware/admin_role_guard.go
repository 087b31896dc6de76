package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

//contextに入っているroleがADMINかどうかを確認します。

func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if p.UserID == "" {
				return unauthorized(c)
			}

			//CUSTOMERは拒否、ADMINだけ許可
			if !p.IsAdmin() {
				return c.JSON(http.StatusForbidden, errorJSON("Admin only"))
			}

			return next(c)
		}
	}
}
