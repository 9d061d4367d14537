package model

import "time"

type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusCompleted ReferralStatus = "completed"
	ReferralStatusExpired   ReferralStatus = "expired"
)

type Referral struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ReferrerID int64  `gorm:"not null;index" json:"referrer_id"`
	ReferredID *int64 `gorm:"index" json:"referred_id"`

	ReferralCode string         `gorm:"type:varchar(30);not null;index" json:"referral_code"`
	RewardAmount float64        `gorm:"not null" json:"reward_amount"`
	Status       ReferralStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 紹介特典つきプロモコードの利用条件
type ReferralReward struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PromoCodeID       int64     `gorm:"not null;uniqueIndex" json:"promo_code_id"`
	RequiredReferrals int       `gorm:"not null" json:"required_referrals"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
