package handler

import (
	"net/http"

	"rentalapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc, buyerOnly echo.MiddlewareFunc) {
	//空き確認は公開API
	e.GET("/products/:id/availability", h.checkAvailability)

	g := e.Group("/cart", auth, buyerOnly)
	g.GET("", h.get)
	g.POST("/items", h.add)
	g.PATCH("/items/:productID", h.update)
	g.DELETE("/items/:productID", h.remove)
	g.DELETE("", h.clear)
}

func (h *CartHandler) checkAvailability(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.CheckProductAvailability(
		c.Request().Context(),
		id,
		c.QueryParam("start_date"),
		c.QueryParam("end_date"),
	)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) get(c echo.Context) error {
	out, err := h.uc.GetCart(c.Request().Context(), currentUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) add(c echo.Context) error {
	var in usecase.AddToCartInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	item, err := h.uc.AddToCart(c.Request().Context(), currentUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHandler) update(c echo.Context) error {
	productID, err := pathID(c, "productID")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.UpdateCartItemInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	item, err := h.uc.UpdateCartItem(c.Request().Context(), currentUserID(c), productID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) remove(c echo.Context) error {
	productID, err := pathID(c, "productID")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.RemoveFromCart(c.Request().Context(), currentUserID(c), productID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "removed from cart"})
}

func (h *CartHandler) clear(c echo.Context) error {
	if err := h.uc.ClearCart(c.Request().Context(), currentUserID(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "cart cleared"})
}
