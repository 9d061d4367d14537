package main

import (
	"context"
	"log/slog"
	"os"

	"rentalapp/internal/config"
	"rentalapp/internal/domain/model"
	"rentalapp/internal/handler"
	"rentalapp/internal/infra/db"
	"rentalapp/internal/infra/mail"
	infraRepo "rentalapp/internal/infra/repository"
	"rentalapp/internal/infra/storage"
	"rentalapp/internal/middleware"
	"rentalapp/internal/server"
	"rentalapp/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	//.envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		panic(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Product{},
		&model.ProductImage{},
		&model.CartItem{},
		&model.WishlistItem{},
		&model.Order{},
		&model.Payment{},
		&model.Review{},
		&model.PromoCode{},
		&model.PromoCodeClaim{},
		&model.Referral{},
		&model.ReferralReward{},
		&model.KYCDocument{},
		&model.KYCVerification{},
		&model.Notification{},
	); err != nil {
		panic(err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	wishlistRepo := infraRepo.NewWishlistGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	paymentRepo := infraRepo.NewPaymentGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	promoRepo := infraRepo.NewPromoGormRepository(gormDB)
	referralRepo := infraRepo.NewReferralGormRepository(gormDB)
	kycRepo := infraRepo.NewKYCGormRepository(gormDB)
	notificationRepo := infraRepo.NewNotificationGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//外部サービスのクライアント
	mailer := mail.NewResendClient(cfg.ResendAPIKey, cfg.MailBaseURL, cfg.MailFrom)
	store := storage.NewHTTPClient(cfg.StorageBaseURL, cfg.StorageAPIKey)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo, txm)
	productUC := usecase.NewProductUsecase(productRepo, orderRepo, reviewRepo, userRepo, store, txm)
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo, orderRepo)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, cartRepo, userRepo, promoRepo, referralRepo)
	sellerUC := usecase.NewSellerUsecase(txm, orderRepo, paymentRepo)
	deliveryUC := usecase.NewDeliveryUsecase(orderRepo)
	wishlistUC := usecase.NewWishlistUsecase(wishlistRepo, productRepo)
	reviewUC := usecase.NewReviewUsecase(reviewRepo, orderRepo)
	promoUC := usecase.NewPromoUsecase(promoRepo, referralRepo, userRepo)
	referralUC := usecase.NewReferralUsecase(cfg, referralRepo, userRepo)
	kycUC := usecase.NewKYCUsecase(txm, kycRepo, userRepo, store)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, orderRepo, userRepo, paymentRepo)
	dashboardUC := usecase.NewDashboardUsecase(userRepo, productRepo, orderRepo, rtRepo)

	//認可ミドルウェア。authはJWT検証＋token_version照合。
	authMW := middleware.Chain(middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo))
	mw := server.Middlewares{
		Auth:        authMW,
		BuyerOnly:   middleware.RoleGuard(model.RoleBuyer),
		SellerOnly:  middleware.RoleGuard(model.RoleSeller),
		PartnerOnly: middleware.RoleGuard(model.RoleDeliveryPartner),
		AdminOnly:   middleware.AdminRoleGuard(),
	}

	//Handler生成
	hs := server.Handlers{
		Auth:     handler.NewAuthHandler(authUC),
		Product:  handler.NewProductHandler(productUC),
		Cart:     handler.NewCartHandler(cartUC),
		Order:    handler.NewOrderHandler(orderUC),
		Seller:   handler.NewSellerHandler(orderUC, sellerUC),
		Delivery: handler.NewDeliveryHandler(deliveryUC, orderUC),
		Wishlist: handler.NewWishlistHandler(wishlistUC),
		Review:   handler.NewReviewHandler(reviewUC),
		Promo:    handler.NewPromoHandler(promoUC, referralUC),
		KYC:      handler.NewKYCHandler(kycUC),
		Admin:    handler.NewAdminHandler(adminOrderUC, orderUC, dashboardUC, promoUC, authUC, productUC),
	}

	//バックグラウンド処理。通知送信と延滞検知。
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := usecase.NewNotificationDispatcher(notificationRepo, userRepo, mailer, log)
	go dispatcher.Run(ctx)

	sweeper := usecase.NewOverdueSweeper(txm, orderRepo, log)
	go sweeper.Run(ctx)

	//Server起動
	e := server.New(cfg, hs, mw)
	if err := server.Start(e, cfg.Port); err != nil {
		panic(err)
	}
}
