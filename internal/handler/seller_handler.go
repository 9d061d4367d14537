package handler

import (
	"net/http"

	"rentalapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 売り手の注文・売上まわり
type SellerHandler struct {
	orders *usecase.OrderUsecase
	seller *usecase.SellerUsecase
}

// DI
func NewSellerHandler(orders *usecase.OrderUsecase, seller *usecase.SellerUsecase) *SellerHandler {
	return &SellerHandler{orders: orders, seller: seller}
}

func (h *SellerHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc, sellerOnly echo.MiddlewareFunc) {
	g := e.Group("/seller", auth, sellerOnly)
	g.GET("/orders", h.listOrders)
	g.POST("/orders/:id/damage-report", h.reportDamage)
	g.POST("/orders/:id/cancel", h.cancelOrder)
	g.GET("/earnings", h.earnings)
	g.POST("/withdrawals", h.requestWithdrawal)
	g.GET("/payments", h.listPayments)
}

func (h *SellerHandler) listOrders(c echo.Context) error {
	page, limit := pageQuery(c)
	out, err := h.orders.ListSellerOrders(c.Request().Context(), currentUserID(c), statusQuery(c), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SellerHandler) reportDamage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.ReportDamageInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	o, err := h.seller.ReportDamage(c.Request().Context(), currentUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *SellerHandler) cancelOrder(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.SellerCancelInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	o, err := h.seller.CancelOrder(c.Request().Context(), currentUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *SellerHandler) earnings(c echo.Context) error {
	out, err := h.seller.GetEarnings(c.Request().Context(), currentUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SellerHandler) requestWithdrawal(c echo.Context) error {
	var in usecase.WithdrawalInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	p, err := h.seller.RequestWithdrawal(c.Request().Context(), currentUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *SellerHandler) listPayments(c echo.Context) error {
	items, err := h.seller.ListPayments(c.Request().Context(), currentUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}
