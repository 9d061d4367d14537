package handler

import (
	"net/http"

	"rentalapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

// プロモコードの検証と紹介プログラム
type PromoHandler struct {
	promos    *usecase.PromoUsecase
	referrals *usecase.ReferralUsecase
}

// DI
func NewPromoHandler(promos *usecase.PromoUsecase, referrals *usecase.ReferralUsecase) *PromoHandler {
	return &PromoHandler{promos: promos, referrals: referrals}
}

func (h *PromoHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	g := e.Group("", auth)
	g.POST("/promo-codes/validate", h.validate)
	g.GET("/referrals/stats", h.referralStats)
}

func (h *PromoHandler) validate(c echo.Context) error {
	var in usecase.ValidatePromoInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	out, err := h.promos.ValidatePromoCode(c.Request().Context(), currentUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PromoHandler) referralStats(c echo.Context) error {
	out, err := h.referrals.GetReferralStats(c.Request().Context(), currentUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
