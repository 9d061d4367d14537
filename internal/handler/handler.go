package handler

import (
	"net/http"
	"strconv"
	"strings"

	"rentalapp/internal/domain/model"
	"rentalapp/internal/middleware"
	"rentalapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// AuthJWTが積んだuser_idを取り出す
func currentUserID(c echo.Context) int64 {
	if v, ok := c.Get(middleware.CtxUserIDKey).(int64); ok {
		return v
	}
	return 0
}

func currentRole(c echo.Context) model.Role {
	if v, ok := c.Get(middleware.CtxUserRoleKey).(string); ok {
		return model.Role(v)
	}
	return ""
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// page/limitのクエリを読む。未指定は0（usecase側でdefaultに寄せる）。
func pageQuery(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return page, limit
}

// カンマ区切りのstatusフィルタ
func statusQuery(c echo.Context) []string {
	raw := c.QueryParam("status")
	if raw == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
