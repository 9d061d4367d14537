package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rentalapp/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test_secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(testSecret))
	assert.NoError(t, err)
	return signed
}

func invokeAuth(t *testing.T, authz string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := AuthJWT(config.Config{JWTSecret: testSecret})
	h := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	_ = h(c)
	return rec, c
}

func TestAuthJWT(t *testing.T) {
	now := time.Now()

	t.Run("valid token populates context", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{
			"sub":  "42",
			"role": "buyer",
			"tv":   float64(3),
			"iat":  now.Unix(),
			"exp":  now.Add(15 * time.Minute).Unix(),
		})

		rec, c := invokeAuth(t, "Bearer "+token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(42), c.Get(CtxUserIDKey))
		assert.Equal(t, "buyer", c.Get(CtxUserRoleKey))
		assert.Equal(t, 3, c.Get(CtxTokenVersionKey))
	})

	t.Run("missing header", func(t *testing.T) {
		rec, _ := invokeAuth(t, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("not bearer", func(t *testing.T) {
		rec, _ := invokeAuth(t, "Basic abc")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{
			"sub":  "42",
			"role": "buyer",
			"tv":   float64(0),
			"iat":  now.Add(-1 * time.Hour).Unix(),
			"exp":  now.Add(-30 * time.Minute).Unix(),
		})
		rec, _ := invokeAuth(t, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown role claim", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{
			"sub":  "42",
			"role": "superuser",
			"tv":   float64(0),
			"iat":  now.Unix(),
			"exp":  now.Add(15 * time.Minute).Unix(),
		})
		rec, _ := invokeAuth(t, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  "42",
			"role": "buyer",
			"tv":   float64(0),
			"exp":  now.Add(15 * time.Minute).Unix(),
		})
		signed, err := tok.SignedString([]byte("other_secret"))
		assert.NoError(t, err)

		rec, _ := invokeAuth(t, "Bearer "+signed)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
