package middleware

import "github.com/labstack/echo/v4"

// Chain は複数のミドルウェアを先頭から順に適用する1つのミドルウェアにまとめる。
func Chain(mws ...echo.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
