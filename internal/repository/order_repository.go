package repository

import (
	"context"
	"time"

	"rentalapp/internal/domain/model"
)

type OrderListFilter struct {
	Page     int
	Limit    int
	Statuses []model.OrderStatus
	BuyerID  *int64
	SellerID *int64

	DeliveryPartnerID *int64
	DeliveryStatuses  []model.DeliveryStatus
}

// 売り手の集計（materialized済みカラムの合計）
type SellerEarnings struct {
	TotalEarnings   float64 `json:"total_earnings"`
	TotalOrders     int64   `json:"total_orders"`
	CompletedOrders int64   `json:"completed_orders"`
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	Create(ctx context.Context, order *model.Order) error

	List(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)

	//expected_return_date超過・ongoing・未返却
	ListOverdue(ctx context.Context, today time.Time, page, limit int) ([]model.Order, int64, error)
	//開始日を過ぎてもdelivery_status=pendingのまま
	ListMissedPickups(ctx context.Context, now time.Time) ([]model.Order, error)
	//保証金が発生している注文
	ListWithDeposit(ctx context.Context) ([]model.Order, error)

	//部分更新。0行更新はErrNotFound。
	UpdateFields(ctx context.Context, orderID int64, fields map[string]interface{}) error

	//late_fee = late_fee + amount（アトミック）
	IncrementLateFee(ctx context.Context, orderID int64, amount float64, at time.Time) error

	//重複予約の判定。両端含む比較（start <= existing.end AND existing.start <= end）。
	CountOverlapping(ctx context.Context, productID int64, start, end time.Time, blocking []model.OrderStatus) (int64, error)

	CountByBuyer(ctx context.Context, buyerID int64) (int64, error)
	CountByProductAndStatuses(ctx context.Context, productID int64, statuses []model.OrderStatus) (int64, error)
	CountByStatus(ctx context.Context, status model.OrderStatus) (int64, error)
	EarningsBySeller(ctx context.Context, sellerID int64) (SellerEarnings, error)
	SumCompletedRevenue(ctx context.Context) (float64, error)
	ListRecent(ctx context.Context, limit int) ([]model.Order, error)
}
