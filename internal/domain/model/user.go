package model

import "time"

type Role string

const (
	RoleBuyer           Role = "buyer"
	RoleSeller          Role = "seller"
	RoleDeliveryPartner Role = "delivery_partner"
	RoleAdmin           Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleDeliveryPartner, RoleAdmin:
		return true
	}
	return false
}

type KYCStatus string

const (
	KYCStatusNone       KYCStatus = "none"
	KYCStatusPending    KYCStatus = "pending"
	KYCStatusVerified   KYCStatus = "verified"
	KYCStatusSuspicious KYCStatus = "suspicious"
	KYCStatusInactive   KYCStatus = "inactive"
)

// プロフィール（全ロール共通）
type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	FullName     string `gorm:"type:varchar(255);not null" json:"full_name"`
	Role         Role   `gorm:"type:varchar(20);not null;index" json:"role"`
	PhoneNumber  string `gorm:"type:varchar(30)" json:"phone_number"`

	//KYC審査の現在値（審査レコード側が正、ここは読み取り用）
	KYCStatus                KYCStatus `gorm:"type:varchar(20);not null;default:'none'" json:"kyc_status"`
	CurrentKYCVerificationID *int64    `json:"current_kyc_verification_id"`

	//紹介コード（signup時に採番、ユニーク）
	ReferralCode string `gorm:"type:varchar(30);uniqueIndex" json:"referral_code"`

	//通知設定
	EmailNotifications    bool `gorm:"not null;default:true" json:"email_notifications"`
	WhatsappNotifications bool `gorm:"not null;default:false" json:"whatsapp_notifications"`

	TokenVersion int        `gorm:"not null;default:0" json:"token_version"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 注文詳細などに埋め込む軽量版
type UserSummary struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, FullName: u.FullName, Email: u.Email}
}
