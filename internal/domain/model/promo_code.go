package model

import "time"

type DiscountType string

const (
	DiscountFlat       DiscountType = "flat"
	DiscountPercentage DiscountType = "percentage"
)

type Eligibility string

const (
	EligibilityAll           Eligibility = "all"
	EligibilityNewUsers      Eligibility = "new_users"
	EligibilityBuyers        Eligibility = "buyers"
	EligibilitySellers       Eligibility = "sellers"
	EligibilitySpecificUsers Eligibility = "specific_users"
)

type PromoCode struct {
	ID            int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Code          string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	DiscountType  DiscountType `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue float64      `gorm:"not null" json:"discount_value"`

	//percentageの割引上限（0なら無制限）
	MaxDiscountAmount float64 `gorm:"not null;default:0" json:"max_discount_amount"`
	MinOrderAmount    float64 `gorm:"not null;default:0" json:"min_order_amount"`

	ExpiryDate  time.Time   `gorm:"not null" json:"expiry_date"`
	Eligibility Eligibility `gorm:"type:varchar(20);not null;default:'all'" json:"eligibility"`

	//specific_users向けの許可リスト（カンマ区切りID）
	SpecificUserIDs string `gorm:"type:text" json:"specific_user_ids"`

	MaxUsageCount int  `gorm:"not null;default:0" json:"max_usage_count"`
	UsageCount    int  `gorm:"not null;default:0" json:"usage_count"`
	IsActive      bool `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 紹介特典コードの一回限り利用の記録
type PromoCodeClaim struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64     `gorm:"not null;index:idx_claim_once,unique" json:"user_id"`
	PromoCodeID int64     `gorm:"not null;index:idx_claim_once,unique" json:"promo_code_id"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
