package server

import (
	"net/http"

	"rentalapp/internal/config"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// New はechoインスタンスを組み立てる。ルーティングは routes.go 側。
func New(cfg config.Config, hs Handlers, mw Middlewares) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	//CORS。devではvercelのプレビューURLも許可する。
	origins := cfg.AllowedOrigins
	if cfg.IsDev() {
		origins = append(origins, "http://localhost:3000", "https://*.vercel.app")
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	RegisterRoutes(e, hs, mw)
	return e
}

func Start(e *echo.Echo, port string) error {
	return e.Start(":" + port)
}
