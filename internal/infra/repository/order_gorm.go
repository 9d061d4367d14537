package repository

import (
	"context"
	"errors"
	"time"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderGormRepository) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 10
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	if len(f.Statuses) > 0 {
		q = q.Where("order_status IN ?", f.Statuses)
	}
	if f.BuyerID != nil {
		q = q.Where("buyer_id = ?", *f.BuyerID)
	}
	if f.SellerID != nil {
		q = q.Where("seller_id = ?", *f.SellerID)
	}
	if f.DeliveryPartnerID != nil {
		q = q.Where("delivery_partner_id = ?", *f.DeliveryPartnerID)
	}
	if len(f.DeliveryStatuses) > 0 {
		q = q.Where("delivery_status IN ?", f.DeliveryStatuses)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	err := q.Order("created_at desc").Limit(f.Limit).Offset(offset).Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}
	return items, total, nil
}

func (r *OrderGormRepository) ListOverdue(ctx context.Context, today time.Time, page, limit int) ([]model.Order, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	q := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("expected_return_date < ?", today).
		Where("order_status = ?", model.OrderStatusOngoing).
		Where("actual_return_date IS NULL")

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (page - 1) * limit
	err := q.Order("expected_return_date asc").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}
	return items, total, nil
}

func (r *OrderGormRepository) ListMissedPickups(ctx context.Context, now time.Time) ([]model.Order, error) {
	var items []model.Order
	err := r.db.WithContext(ctx).
		Where("delivery_status = ?", model.DeliveryStatusPending).
		Where("rental_start_date < ?", now).
		Order("rental_start_date asc").
		Find(&items).Error
	if err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

func (r *OrderGormRepository) ListWithDeposit(ctx context.Context) ([]model.Order, error) {
	var items []model.Order
	err := r.db.WithContext(ctx).
		Where("security_deposit > 0").
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

func (r *OrderGormRepository) UpdateFields(ctx context.Context, orderID int64, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) IncrementLateFee(ctx context.Context, orderID int64, amount float64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"late_fee":            gorm.Expr("late_fee + ?", amount),
			"late_fee_applied_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 期間の重複判定は両端を含む比較。
// 境界日をまたぐ連続予約（前の終了日＝次の開始日）も重複として弾く。
func (r *OrderGormRepository) CountOverlapping(ctx context.Context, productID int64, start, end time.Time, blocking []model.OrderStatus) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("product_id = ?", productID).
		Where("order_status IN ?", blocking).
		Where("rental_start_date <= ? AND ? <= rental_end_date", end, start).
		Count(&total).Error
	return total, err
}

func (r *OrderGormRepository) CountByBuyer(ctx context.Context, buyerID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("buyer_id = ?", buyerID).
		Count(&total).Error
	return total, err
}

func (r *OrderGormRepository) CountByProductAndStatuses(ctx context.Context, productID int64, statuses []model.OrderStatus) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("product_id = ?", productID).
		Where("order_status IN ?", statuses).
		Count(&total).Error
	return total, err
}

func (r *OrderGormRepository) CountByStatus(ctx context.Context, status model.OrderStatus) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_status = ?", status).
		Count(&total).Error
	return total, err
}

func (r *OrderGormRepository) EarningsBySeller(ctx context.Context, sellerID int64) (repo.SellerEarnings, error) {
	var e repo.SellerEarnings

	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("COALESCE(SUM(CASE WHEN payment_status = ? THEN total_rental_price ELSE 0 END), 0)", model.PaymentStatusCompleted).
		Where("seller_id = ?", sellerID).
		Scan(&e.TotalEarnings).Error
	if err != nil {
		return repo.SellerEarnings{}, err
	}

	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("seller_id = ?", sellerID).
		Count(&e.TotalOrders).Error; err != nil {
		return repo.SellerEarnings{}, err
	}

	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("seller_id = ? AND order_status = ?", sellerID, model.OrderStatusCompleted).
		Count(&e.CompletedOrders).Error; err != nil {
		return repo.SellerEarnings{}, err
	}

	return e, nil
}

func (r *OrderGormRepository) SumCompletedRevenue(ctx context.Context) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("COALESCE(SUM(total_rental_price), 0)").
		Where("payment_status = ?", model.PaymentStatusCompleted).
		Scan(&sum).Error
	return sum, err
}

func (r *OrderGormRepository) ListRecent(ctx context.Context, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	var items []model.Order
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, err
	}
	return items, nil
}
