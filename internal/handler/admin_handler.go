package handler

import (
	"net/http"
	"strings"

	"rentalapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 管理者API。注文運用・ユーザー管理・プロモ管理・ダッシュボード。
type AdminHandler struct {
	orders    *usecase.AdminOrderUsecase
	returns   *usecase.OrderUsecase
	dashboard *usecase.DashboardUsecase
	promos    *usecase.PromoUsecase
	auth      *usecase.AuthUsecase
	products  *usecase.ProductUsecase
}

// DI
func NewAdminHandler(
	orders *usecase.AdminOrderUsecase,
	returns *usecase.OrderUsecase,
	dashboard *usecase.DashboardUsecase,
	promos *usecase.PromoUsecase,
	auth *usecase.AuthUsecase,
	products *usecase.ProductUsecase,
) *AdminHandler {
	return &AdminHandler{
		orders:    orders,
		returns:   returns,
		dashboard: dashboard,
		promos:    promos,
		auth:      auth,
		products:  products,
	}
}

func (h *AdminHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	g := e.Group("/admin", auth, adminOnly)

	g.GET("/dashboard", h.getDashboard)
	g.GET("/users", h.listUsers)
	g.POST("/users/:id/deactivate", h.deactivateUser)
	g.POST("/users/:id/activate", h.activateUser)
	g.POST("/users/:id/force-logout", h.forceLogout)

	g.GET("/orders", h.listOrders)
	g.GET("/orders/overdue", h.listOverdue)
	g.GET("/orders/missed-pickups", h.listMissedPickups)
	g.GET("/orders/deposits", h.listDeposits)
	g.PATCH("/orders/:id/status", h.updateOrderStatus)
	g.PATCH("/orders/:id/delivery-status", h.updateDeliveryStatus)
	g.PATCH("/orders/:id/payment-status", h.updatePaymentStatus)
	g.POST("/orders/:id/assign-delivery", h.assignDelivery)
	g.POST("/orders/:id/late-fee", h.applyLateFee)
	g.POST("/orders/:id/damage-claim", h.handleDamageClaim)
	g.POST("/orders/:id/security-deposit", h.processDeposit)
	g.POST("/orders/:id/cancel", h.cancelRental)
	g.POST("/orders/:id/process-return", h.processReturn)

	g.POST("/withdrawals/:id/process", h.processWithdrawal)

	g.GET("/products", h.listProducts)
	g.PATCH("/products/:id/visibility", h.updateVisibility)
	g.PATCH("/products/:id/commission", h.updateCommission)

	g.GET("/promo-codes", h.listPromos)
	g.POST("/promo-codes", h.createPromo)
	g.POST("/promo-codes/:id/deactivate", h.deactivatePromo)
}

func (h *AdminHandler) getDashboard(c echo.Context) error {
	out, err := h.dashboard.GetDashboard(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) listUsers(c echo.Context) error {
	var roles []string
	if raw := c.QueryParam("role"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				roles = append(roles, s)
			}
		}
	}

	users, err := h.dashboard.ListUsers(c.Request().Context(), roles)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) deactivateUser(c echo.Context) error {
	return h.setUserActive(c, false)
}

func (h *AdminHandler) activateUser(c echo.Context) error {
	return h.setUserActive(c, true)
}

func (h *AdminHandler) setUserActive(c echo.Context, active bool) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	user, err := h.dashboard.SetUserActive(c.Request().Context(), id, active)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) forceLogout(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	tv, err := h.auth.ForceLogout(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"user_id": id, "new_token_version": tv})
}

func (h *AdminHandler) listOrders(c echo.Context) error {
	page, limit := pageQuery(c)
	out, err := h.orders.ListOrders(c.Request().Context(), statusQuery(c), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) listOverdue(c echo.Context) error {
	page, limit := pageQuery(c)
	out, err := h.orders.ListOverdueOrders(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) listMissedPickups(c echo.Context) error {
	items, err := h.orders.ListMissedPickups(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHandler) listDeposits(c echo.Context) error {
	items, err := h.orders.ListSecurityDeposits(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHandler) updateOrderStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.UpdateStatusInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	o, err := h.orders.UpdateOrderStatus(c.Request().Context(), currentUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHandler) updateDeliveryStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.UpdateStatusInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	o, err := h.orders.UpdateDeliveryStatus(c.Request().Context(), currentUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHandler) updatePaymentStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.UpdateStatusInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	o, err := h.orders.UpdatePaymentStatus(c.Request().Context(), currentUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHandler) assignDelivery(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.AssignDeliveryInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	o, err := h.orders.AssignDeliveryPartner(c.Request().Context(), currentUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHandler) applyLateFee(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.ApplyLateFeeInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	o, err := h.orders.ApplyLateFee(c.Request().Context(), currentUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHandler) handleDamageClaim(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.HandleDamageClaimInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	o, err := h.orders.HandleDamageClaim(c.Request().Context(), currentUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHandler) processDeposit(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.ProcessDepositInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	o, err := h.orders.ProcessSecurityDeposit(c.Request().Context(), currentUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHandler) cancelRental(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.AdminCancelInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	o, err := h.orders.CancelRental(c.Request().Context(), currentUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHandler) processReturn(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.ProcessReturnInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	out, err := h.returns.ProcessReturn(c.Request().Context(), currentUserID(c), currentRole(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) processWithdrawal(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.ProcessWithdrawalInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	p, err := h.orders.ProcessWithdrawal(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminHandler) listProducts(c echo.Context) error {
	page, limit := pageQuery(c)
	out, err := h.products.AdminListProducts(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) updateVisibility(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.UpdateVisibilityInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	p, err := h.products.AdminUpdateVisibility(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminHandler) updateCommission(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.UpdateCommissionInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	p, err := h.products.AdminUpdateCommission(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminHandler) listPromos(c echo.Context) error {
	items, err := h.promos.ListPromoCodes(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHandler) createPromo(c echo.Context) error {
	var in usecase.CreatePromoInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	p, err := h.promos.CreatePromoCode(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *AdminHandler) deactivatePromo(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.promos.DeactivatePromoCode(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "promo code deactivated"})
}
