package model

import "time"

// 通知イベント種別。テンプレートはdispatcher側が持つ。
const (
	EventAccountCreated          = "account_created"
	EventKYCApproved             = "kyc_approved"
	EventKYCRejected             = "kyc_rejected"
	EventProductListed           = "product_listed"
	EventProductBooked           = "product_booked"
	EventRentalConfirmed         = "rental_confirmed"
	EventProductReturned         = "product_returned"
	EventLateReturn              = "late_return"
	EventLateFeeApplied          = "late_fee_applied"
	EventDamageReported          = "damage_reported"
	EventSecurityDepositRefunded = "security_deposit_refunded"
	EventDeliveryAssigned        = "delivery_assigned"
	EventReferralCompleted       = "referral_completed"
	EventOrderCancelled          = "order_cancelled"
)

type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// 通知のoutbox行。変更と同じトランザクションで積み、
// ディスパッチャが後から送る。送信失敗は本処理に波及しない。
type Notification struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64  `gorm:"not null;index" json:"user_id"`
	EventType string `gorm:"type:varchar(50);not null" json:"event_type"`

	//テンプレートに流し込む値（JSON文字列）
	PlaceholdersJSON string `gorm:"type:text" json:"placeholders_json"`

	Status   NotificationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Attempts int                `gorm:"not null;default:0" json:"attempts"`
	LastErr  string             `gorm:"type:text" json:"last_err"`
	SentAt   *time.Time         `json:"sent_at"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
