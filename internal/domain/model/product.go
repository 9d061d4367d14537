package model

import (
	"time"

	"gorm.io/gorm"
)

type AvailabilityStatus string

const (
	AvailabilityAvailable   AvailabilityStatus = "available"
	AvailabilityUnavailable AvailabilityStatus = "unavailable"
	AvailabilityBooked      AvailabilityStatus = "booked"
)

// 管理者モデレーションの表示状態
type Visibility string

const (
	VisibilityVisible  Visibility = "visible"
	VisibilityHidden   Visibility = "hidden"
	VisibilityRejected Visibility = "rejected"
)

type Product struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID    int64  `gorm:"not null;index" json:"seller_id"`
	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"type:varchar(100);index" json:"category"`
	Size        string `gorm:"type:varchar(30)" json:"size"`

	RentalPricePerDay float64 `gorm:"not null" json:"rental_price_per_day"`

	//保証金率＝プラットフォーム手数料率（0〜100）
	SecurityDepositPercentage float64 `gorm:"not null;default:0" json:"security_deposit_percentage"`

	AvailabilityStatus AvailabilityStatus `gorm:"type:varchar(20);not null;default:'available';index" json:"availability_status"`
	Visibility         Visibility         `gorm:"type:varchar(20);not null;default:'visible';index" json:"visibility"`

	//ストレージ上のファイルキー（最大10枚）
	Images []ProductImage `gorm:"foreignKey:ProductID" json:"images,omitempty"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type ProductImage struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"not null;index" json:"product_id"`
	FileKey   string    `gorm:"type:varchar(512);not null" json:"file_key"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
