package handler

import (
	"net/http"

	"rentalapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 買い手の注文操作
type OrderHandler struct {
	uc *usecase.OrderUsecase
}

// DI
func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc, buyerOnly echo.MiddlewareFunc) {
	g := e.Group("/orders", auth)
	g.GET("/:id", h.detail)

	b := e.Group("/orders", auth, buyerOnly)
	b.POST("/checkout", h.checkout)
	b.GET("", h.listMine)
	b.POST("/:id/cancel", h.cancel)
}

func (h *OrderHandler) checkout(c echo.Context) error {
	var in usecase.CheckoutInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	out, err := h.uc.Checkout(c.Request().Context(), currentUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	o, err := h.uc.GetOrder(c.Request().Context(), currentUserID(c), currentRole(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) listMine(c echo.Context) error {
	page, limit := pageQuery(c)
	out, err := h.uc.ListBuyerOrders(c.Request().Context(), currentUserID(c), statusQuery(c), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	o, err := h.uc.CancelOrder(c.Request().Context(), currentUserID(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}
