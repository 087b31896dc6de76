package middleware

import (
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxPrincipalKey    = "principal"     // usecase.Principal
	CtxTokenVersionKey = "token_version" // int
)

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Bearer形式か確認してtokenを抜く
			authz := c.Request().Header.Get("Authorization")
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return unauthorized(c)
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return unauthorized(c)
			}

			//HS256以外は拒否
			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return key, nil
			})
			if err != nil || token == nil || !token.Valid {
				return unauthorized(c)
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c)
			}

			userID, _ := claims[usecase.ClaimSubject].(string)
			role, _ := claims[usecase.ClaimRole].(string)
			if userID == "" || role == "" {
				return unauthorized(c)
			}

			//数値はfloat64で入ってくる
			tv, ok := claims[usecase.ClaimTokenVersion].(float64)
			if !ok || tv < 0 {
				return unauthorized(c)
			}

			c.Set(CtxPrincipalKey, usecase.Principal{UserID: userID, Role: model.Role(role)})
			c.Set(CtxTokenVersionKey, int(tv))

			return next(c)
		}
	}
}

// AuthJWTを通っていなければゼロ値
func PrincipalFrom(c echo.Context) usecase.Principal {
	p, _ := c.Get(CtxPrincipalKey).(usecase.Principal)
	return p
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorJSON("Unauthorized"))
}
