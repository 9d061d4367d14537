package model

import "time"

// 注文ごとに1件。completedの注文のみ対象。
type Review struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"not null;index:idx_review_once,unique" json:"product_id"`
	BuyerID   int64     `gorm:"not null;index:idx_review_once,unique" json:"buyer_id"`
	OrderID   int64     `gorm:"not null;index:idx_review_once,unique" json:"order_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
