package handler

import (
	"net/http"

	"rentalapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

type WishlistHandler struct {
	uc *usecase.WishlistUsecase
}

// DI
func NewWishlistHandler(uc *usecase.WishlistUsecase) *WishlistHandler {
	return &WishlistHandler{uc: uc}
}

func (h *WishlistHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc, buyerOnly echo.MiddlewareFunc) {
	g := e.Group("/wishlist", auth, buyerOnly)
	g.GET("", h.list)
	g.POST("/:productID", h.add)
	g.DELETE("/:productID", h.remove)
}

func (h *WishlistHandler) list(c echo.Context) error {
	out, err := h.uc.ListWishlist(c.Request().Context(), currentUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WishlistHandler) add(c echo.Context) error {
	productID, err := pathID(c, "productID")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.AddToWishlist(c.Request().Context(), currentUserID(c), productID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, SuccessResponse{Message: "added to wishlist"})
}

func (h *WishlistHandler) remove(c echo.Context) error {
	productID, err := pathID(c, "productID")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.RemoveFromWishlist(c.Request().Context(), currentUserID(c), productID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "removed from wishlist"})
}
