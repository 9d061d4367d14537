package handler

import (
	"net/http"

	"rentalapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 配達員向けのAPI
type DeliveryHandler struct {
	delivery *usecase.DeliveryUsecase
	orders   *usecase.OrderUsecase
}

// DI
func NewDeliveryHandler(delivery *usecase.DeliveryUsecase, orders *usecase.OrderUsecase) *DeliveryHandler {
	return &DeliveryHandler{delivery: delivery, orders: orders}
}

func (h *DeliveryHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc, partnerOnly echo.MiddlewareFunc) {
	g := e.Group("/delivery", auth, partnerOnly)
	g.GET("/orders", h.listAssigned)
	g.POST("/orders/:id/progress", h.updateProgress)
	g.POST("/orders/:id/return", h.processReturn)
}

func (h *DeliveryHandler) listAssigned(c echo.Context) error {
	page, limit := pageQuery(c)
	out, err := h.delivery.ListAssignedOrders(c.Request().Context(), currentUserID(c), statusQuery(c), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DeliveryHandler) updateProgress(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.DeliveryProgressInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	o, err := h.delivery.UpdateProgress(c.Request().Context(), currentUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *DeliveryHandler) processReturn(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.ProcessReturnInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	out, err := h.orders.ProcessReturn(c.Request().Context(), currentUserID(c), currentRole(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
