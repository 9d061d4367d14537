package model

import "time"

type PaymentType string

const (
	PaymentTypeRental     PaymentType = "rental"
	PaymentTypeWithdrawal PaymentType = "withdrawal"
)

// 出金申請などの台帳行。ゲートウェイ連携はせずステータスのみ持つ。
type Payment struct {
	ID            int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64         `gorm:"not null;index" json:"user_id"`
	OrderID       *int64        `gorm:"index" json:"order_id"`
	Amount        float64       `gorm:"not null" json:"amount"`
	PaymentType   PaymentType   `gorm:"type:varchar(20);not null;index" json:"payment_type"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	CreatedAt     time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
