package handler

import (
	"net/http"

	"rentalapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

type KYCHandler struct {
	uc *usecase.KYCUsecase
}

// DI
func NewKYCHandler(uc *usecase.KYCUsecase) *KYCHandler {
	return &KYCHandler{uc: uc}
}

func (h *KYCHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	g := e.Group("/kyc", auth)
	g.GET("", h.myStatus)
	g.POST("/documents/presign", h.presign)
	g.POST("/documents/:id/confirm", h.confirm)
	g.POST("/submit", h.submit)

	a := e.Group("/admin/kyc", auth, adminOnly)
	a.GET("/pending", h.listPending)
	a.GET("/documents/:id/url", h.documentURL)
	a.POST("/verifications/:id/review", h.review)
}

func (h *KYCHandler) myStatus(c echo.Context) error {
	out, err := h.uc.GetMyKYC(c.Request().Context(), currentUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *KYCHandler) presign(c echo.Context) error {
	var in usecase.KYCUploadRequest
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	out, err := h.uc.RequestDocumentUpload(c.Request().Context(), currentUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *KYCHandler) confirm(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	doc, err := h.uc.ConfirmDocumentUpload(c.Request().Context(), currentUserID(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *KYCHandler) submit(c echo.Context) error {
	var in usecase.SubmitVerificationInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	v, err := h.uc.SubmitVerification(c.Request().Context(), currentUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *KYCHandler) listPending(c echo.Context) error {
	page, limit := pageQuery(c)
	items, err := h.uc.ListPendingVerifications(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *KYCHandler) documentURL(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	url, err := h.uc.GetDocumentURL(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

func (h *KYCHandler) review(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.ReviewVerificationInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	v, err := h.uc.ReviewVerification(c.Request().Context(), currentUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}
