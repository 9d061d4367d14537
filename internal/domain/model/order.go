package model

import "time"

type OrderStatus string

const (
	OrderStatusUpcoming  OrderStatus = "upcoming"
	OrderStatusOngoing   OrderStatus = "ongoing"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusLate      OrderStatus = "late"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type DeliveryStatus string

const (
	DeliveryStatusPending         DeliveryStatus = "pending"
	DeliveryStatusAccepted        DeliveryStatus = "accepted"
	DeliveryStatusOutForPickup    DeliveryStatus = "out_for_pickup"
	DeliveryStatusPicked          DeliveryStatus = "picked"
	DeliveryStatusDelivered       DeliveryStatus = "delivered"
	DeliveryStatusReturned        DeliveryStatus = "returned"
	DeliveryStatusReturnedDamaged DeliveryStatus = "returned_damaged"
	DeliveryStatusCancelled       DeliveryStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
)

type DamageClaimStatus string

const (
	DamageClaimNone     DamageClaimStatus = "none"
	DamageClaimReported DamageClaimStatus = "reported"
	DamageClaimApproved DamageClaimStatus = "approved"
	DamageClaimRejected DamageClaimStatus = "rejected"
)

type SecurityDepositStatus string

const (
	DepositStatusHeld              SecurityDepositStatus = "held"
	DepositStatusReleased          SecurityDepositStatus = "release"
	DepositStatusPartiallyRefunded SecurityDepositStatus = "partially_refunded"
	DepositStatusForfeited         SecurityDepositStatus = "forfeited"
)

// 注文ステータスの遷移表。同値は常にno-op扱いで許可。
var orderStatusNext = map[OrderStatus][]OrderStatus{
	OrderStatusUpcoming:  {OrderStatusOngoing, OrderStatusCancelled},
	OrderStatusOngoing:   {OrderStatusCompleted, OrderStatusLate, OrderStatusCancelled},
	OrderStatusLate:      {OrderStatusCompleted},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
}

var deliveryStatusNext = map[DeliveryStatus][]DeliveryStatus{
	DeliveryStatusPending:      {DeliveryStatusAccepted, DeliveryStatusCancelled},
	DeliveryStatusAccepted:     {DeliveryStatusOutForPickup, DeliveryStatusCancelled},
	DeliveryStatusOutForPickup: {DeliveryStatusPicked, DeliveryStatusCancelled},
	DeliveryStatusPicked:       {DeliveryStatusDelivered, DeliveryStatusCancelled},
	DeliveryStatusDelivered:    {DeliveryStatusReturned, DeliveryStatusReturnedDamaged, DeliveryStatusCancelled},
	// returned / returned_damaged / cancelled は終端
}

var paymentStatusNext = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusCompleted},
	PaymentStatusProcessing: {PaymentStatusCompleted},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusUpcoming, OrderStatusOngoing, OrderStatusCompleted, OrderStatusLate, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, n := range orderStatusNext[s] {
		if n == next {
			return true
		}
	}
	return false
}

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryStatusPending, DeliveryStatusAccepted, DeliveryStatusOutForPickup,
		DeliveryStatusPicked, DeliveryStatusDelivered, DeliveryStatusReturned,
		DeliveryStatusReturnedDamaged, DeliveryStatusCancelled:
		return true
	}
	return false
}

func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	if s == next {
		return true
	}
	for _, n := range deliveryStatusNext[s] {
		if n == next {
			return true
		}
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted:
		return true
	}
	return false
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == next {
		return true
	}
	for _, n := range paymentStatusNext[s] {
		if n == next {
			return true
		}
	}
	return false
}

// レンタル注文（中心エンティティ）。
// ステータス5軸はそれぞれ遷移表で守る。削除はしない（cancelledへの遷移のみ）。
type Order struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	BuyerID           int64  `gorm:"not null;index" json:"buyer_id"`
	SellerID          int64  `gorm:"not null;index" json:"seller_id"`
	ProductID         int64  `gorm:"not null;index" json:"product_id"`
	DeliveryPartnerID *int64 `gorm:"index" json:"delivery_partner_id"`

	//レンタル期間
	RentalStartDate    time.Time  `gorm:"not null" json:"rental_start_date"`
	RentalEndDate      time.Time  `gorm:"not null" json:"rental_end_date"`
	RentalDurationDays int        `gorm:"not null" json:"rental_duration_days"`
	ExpectedReturnDate time.Time  `gorm:"not null" json:"expected_return_date"`
	ActualReturnDate   *time.Time `json:"actual_return_date"`
	IsLateReturn       bool       `gorm:"not null;default:false" json:"is_late_return"`

	//金額
	TotalRentalPrice float64 `gorm:"not null" json:"total_rental_price"`
	SecurityDeposit  float64 `gorm:"not null" json:"security_deposit"`
	TryOnFee         float64 `gorm:"not null;default:0" json:"try_on_fee"`
	TotalAmount      float64 `gorm:"not null" json:"total_amount"`
	LateFee          float64 `gorm:"not null;default:0" json:"late_fee"`
	DamageFee        float64 `gorm:"not null;default:0" json:"damage_fee"`
	DiscountAmount   float64 `gorm:"not null;default:0" json:"discount_amount"`
	CommissionAmount float64 `gorm:"not null;default:0" json:"commission_amount"`

	//ステータス（各軸独立、遷移表で前進のみ）
	OrderStatus           OrderStatus           `gorm:"type:varchar(20);not null;index" json:"order_status"`
	DeliveryStatus        DeliveryStatus        `gorm:"type:varchar(20);not null;index" json:"delivery_status"`
	PaymentStatus         PaymentStatus         `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	DamageClaimStatus     DamageClaimStatus     `gorm:"type:varchar(20);not null;default:'none'" json:"damage_claim_status"`
	SecurityDepositStatus SecurityDepositStatus `gorm:"type:varchar(20);not null;default:'held'" json:"security_deposit_status"`

	PickupAddress   string `gorm:"type:text" json:"pickup_address"`
	DeliveryAddress string `gorm:"type:text" json:"delivery_address"`

	//返却・破損関連
	CollectionPhotoURL     string     `gorm:"type:varchar(512)" json:"collection_photo_url"`
	DamageClaimDescription string     `gorm:"type:text" json:"damage_claim_description"`
	DamageClaimPhotos      string     `gorm:"type:text" json:"damage_claim_photos"`
	DamageReviewedBy       *int64     `json:"damage_reviewed_by"`
	DamageReviewedAt       *time.Time `json:"damage_reviewed_at"`

	//保証金の払い戻し
	SecurityDepositRefundAmount float64    `gorm:"not null;default:0" json:"security_deposit_refund_amount"`
	SecurityDepositReleasedAt   *time.Time `json:"security_deposit_released_at"`

	PromoCodeID *int64 `json:"promo_code_id"`

	DeliveryAssignedAt *time.Time `json:"delivery_assigned_at"`
	LateFeeAppliedAt   *time.Time `json:"late_fee_applied_at"`

	//管理操作の監査
	AdminNotes        string     `gorm:"type:text" json:"admin_notes"`
	LastAdminAction   string     `gorm:"type:varchar(100)" json:"last_admin_action"`
	LastAdminActionBy *int64     `json:"last_admin_action_by"`
	LastAdminActionAt *time.Time `json:"last_admin_action_at"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
