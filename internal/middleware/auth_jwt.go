package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"rentalapp/internal/config"
	"rentalapp/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int
)

// アクセストークンから復元した認証情報
type authClaims struct {
	UserID       int64
	Role         model.Role
	TokenVersion int
}

// Bearerトークンを検証してclaimsをcontextへ積む。
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawToken, ok := bearerToken(c.Request().Header.Get("Authorization"))
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || token == nil || !token.Valid {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			mapClaims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			claims, err := claimsFromToken(mapClaims)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxUserIDKey, claims.UserID)
			c.Set(CtxUserRoleKey, string(claims.Role))
			c.Set(CtxTokenVersionKey, claims.TokenVersion)

			return next(c)
		}
	}
}

// Authorizationヘッダから生トークンを取り出す
func bearerToken(authz string) (string, bool) {
	if authz == "" {
		return "", false
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}

// sub / role / tv を取り出して検証する。
// roleは発行時に正規の値を入れているので、未知の値は改竄扱い。
func claimsFromToken(claims jwt.MapClaims) (authClaims, error) {
	userID, err := claimInt64(claims["sub"])
	if err != nil || userID <= 0 {
		return authClaims{}, errors.New("invalid sub")
	}

	roleStr, ok := claims["role"].(string)
	role := model.Role(roleStr)
	if !ok || !role.Valid() {
		return authClaims{}, errors.New("invalid role")
	}

	tv, err := claimInt(claims["tv"])
	if err != nil || tv < 0 {
		return authClaims{}, errors.New("invalid tv")
	}

	return authClaims{UserID: userID, Role: role, TokenVersion: tv}, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// JSON数値はfloat64で来るので両対応にしておく
func claimInt64(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.New("invalid number claim")
	}
}

func claimInt(v interface{}) (int, error) {
	i64, err := claimInt64(v)
	if err != nil {
		return 0, err
	}
	return int(i64), nil
}
