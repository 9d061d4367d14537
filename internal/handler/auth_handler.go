package handler

import (
	"net/http"

	"rentalapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	uc *usecase.AuthUsecase
}

// DI
func NewAuthHandler(uc *usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	e.POST("/auth/signup", h.signup)
	e.POST("/auth/signin", h.signin)
	e.POST("/auth/refresh", h.refresh)
	e.POST("/auth/signout", h.signout)

	g := e.Group("/auth", auth)
	g.GET("/me", h.me)
	g.PATCH("/me", h.updateProfile)
}

func (h *AuthHandler) signup(c echo.Context) error {
	var in usecase.SignupInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	out, err := h.uc.Signup(c.Request().Context(), in, c.Request().UserAgent())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AuthHandler) signin(c echo.Context) error {
	var in usecase.SigninInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	out, err := h.uc.Signin(c.Request().Context(), in, c.Request().UserAgent())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) refresh(c echo.Context) error {
	var in refreshRequest
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	out, err := h.uc.Refresh(c.Request().Context(), in.RefreshToken, c.Request().UserAgent())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) signout(c echo.Context) error {
	var in refreshRequest
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	if err := h.uc.Signout(c.Request().Context(), in.RefreshToken); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "signed out"})
}

func (h *AuthHandler) me(c echo.Context) error {
	user, err := h.uc.Me(c.Request().Context(), currentUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) updateProfile(c echo.Context) error {
	var in usecase.UpdateProfileInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	user, err := h.uc.UpdateProfile(c.Request().Context(), currentUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
