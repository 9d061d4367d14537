package model

import "time"

type WishlistItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BuyerID   int64     `gorm:"not null;index:idx_wishlist_buyer_product,unique" json:"buyer_id"`
	ProductID int64     `gorm:"not null;index:idx_wishlist_buyer_product,unique" json:"product_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
