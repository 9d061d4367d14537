package model

import "time"

// カート明細。(buyer_id, product_id) で一意、追加から7日で失効。
type CartItem struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	BuyerID   int64 `gorm:"not null;index:idx_cart_buyer_product,unique" json:"buyer_id"`
	ProductID int64 `gorm:"not null;index:idx_cart_buyer_product,unique" json:"product_id"`

	RentalStartDate    time.Time `gorm:"not null" json:"rental_start_date"`
	RentalEndDate      time.Time `gorm:"not null" json:"rental_end_date"`
	RentalDurationDays int       `gorm:"not null" json:"rental_duration_days"`
	TryOnRequested     bool      `gorm:"not null;default:false" json:"try_on_requested"`

	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
