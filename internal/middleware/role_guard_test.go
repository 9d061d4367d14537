package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"rentalapp/internal/domain/model"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func invokeWithRole(t *testing.T, mw echo.MiddlewareFunc, role string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set(CtxUserRoleKey, role)
	}

	h := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	_ = h(c)
	return rec
}

func TestRoleGuard(t *testing.T) {
	guard := RoleGuard(model.RoleSeller)

	assert.Equal(t, http.StatusOK, invokeWithRole(t, guard, "seller").Code)
	assert.Equal(t, http.StatusForbidden, invokeWithRole(t, guard, "buyer").Code)
	//roleが無い＝未認証扱い
	assert.Equal(t, http.StatusUnauthorized, invokeWithRole(t, guard, "").Code)
}

func TestRoleGuardMultipleRoles(t *testing.T) {
	guard := RoleGuard(model.RoleSeller, model.RoleAdmin)

	assert.Equal(t, http.StatusOK, invokeWithRole(t, guard, "seller").Code)
	assert.Equal(t, http.StatusOK, invokeWithRole(t, guard, "admin").Code)
	assert.Equal(t, http.StatusForbidden, invokeWithRole(t, guard, "delivery_partner").Code)
}

func TestAdminRoleGuard(t *testing.T) {
	guard := AdminRoleGuard()

	assert.Equal(t, http.StatusOK, invokeWithRole(t, guard, "admin").Code)
	assert.Equal(t, http.StatusForbidden, invokeWithRole(t, guard, "buyer").Code)
}

func TestChainAppliesInOrder(t *testing.T) {
	var order []string
	tag := func(name string) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := Chain(tag("first"), tag("second"))(func(c echo.Context) error {
		order = append(order, "handler")
		return c.NoContent(http.StatusOK)
	})
	assert.NoError(t, h(c))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}
