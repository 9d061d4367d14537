package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Orders() OrderRepository
	Carts() CartRepository
	Products() ProductRepository
	Users() UserRepository
	Promos() PromoRepository
	Referrals() ReferralRepository
	Notifications() NotificationRepository
	Payments() PaymentRepository
	KYC() KYCRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
