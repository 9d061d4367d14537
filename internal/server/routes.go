package server

import (
	"rentalapp/internal/handler"

	"github.com/labstack/echo/v4"
)

// Handlers は全ハンドラの束。mainで組み立てて渡す。
type Handlers struct {
	Auth     *handler.AuthHandler
	Product  *handler.ProductHandler
	Cart     *handler.CartHandler
	Order    *handler.OrderHandler
	Seller   *handler.SellerHandler
	Delivery *handler.DeliveryHandler
	Wishlist *handler.WishlistHandler
	Review   *handler.ReviewHandler
	Promo    *handler.PromoHandler
	KYC      *handler.KYCHandler
	Admin    *handler.AdminHandler
}

// Middlewares は認可まわりのミドルウェア。
// Auth はJWT検証＋token_version照合を重ねたもの。
type Middlewares struct {
	Auth        echo.MiddlewareFunc
	BuyerOnly   echo.MiddlewareFunc
	SellerOnly  echo.MiddlewareFunc
	PartnerOnly echo.MiddlewareFunc
	AdminOnly   echo.MiddlewareFunc
}

func RegisterRoutes(e *echo.Echo, hs Handlers, mw Middlewares) {
	hs.Auth.RegisterRoutes(e, mw.Auth)
	hs.Product.RegisterRoutes(e, mw.Auth, mw.SellerOnly)
	hs.Cart.RegisterRoutes(e, mw.Auth, mw.BuyerOnly)
	hs.Order.RegisterRoutes(e, mw.Auth, mw.BuyerOnly)
	hs.Seller.RegisterRoutes(e, mw.Auth, mw.SellerOnly)
	hs.Delivery.RegisterRoutes(e, mw.Auth, mw.PartnerOnly)
	hs.Wishlist.RegisterRoutes(e, mw.Auth, mw.BuyerOnly)
	hs.Review.RegisterRoutes(e, mw.Auth, mw.BuyerOnly)
	hs.Promo.RegisterRoutes(e, mw.Auth)
	hs.KYC.RegisterRoutes(e, mw.Auth, mw.AdminOnly)
	hs.Admin.RegisterRoutes(e, mw.Auth, mw.AdminOnly)
}
