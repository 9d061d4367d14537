package repository

import (
	"context"

	repo "rentalapp/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders        repo.OrderRepository
	carts         repo.CartRepository
	products      repo.ProductRepository
	users         repo.UserRepository
	promos        repo.PromoRepository
	referrals     repo.ReferralRepository
	notifications repo.NotificationRepository
	payments      repo.PaymentRepository
	kyc           repo.KYCRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository               { return r.orders }
func (r *txReposGorm) Carts() repo.CartRepository                 { return r.carts }
func (r *txReposGorm) Products() repo.ProductRepository           { return r.products }
func (r *txReposGorm) Users() repo.UserRepository                 { return r.users }
func (r *txReposGorm) Promos() repo.PromoRepository               { return r.promos }
func (r *txReposGorm) Referrals() repo.ReferralRepository         { return r.referrals }
func (r *txReposGorm) Notifications() repo.NotificationRepository { return r.notifications }
func (r *txReposGorm) Payments() repo.PaymentRepository           { return r.payments }
func (r *txReposGorm) KYC() repo.KYCRepository                    { return r.kyc }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:        NewOrderGormRepository(tx),
			carts:         NewCartGormRepository(tx),
			products:      NewProductGormRepository(tx),
			users:         NewUserGormRepository(tx),
			promos:        NewPromoGormRepository(tx),
			referrals:     NewReferralGormRepository(tx),
			notifications: NewNotificationGormRepository(tx),
			payments:      NewPaymentGormRepository(tx),
			kyc:           NewKYCGormRepository(tx),
		}
		return fn(r)
	})
}
