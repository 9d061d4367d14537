package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"
)

type AdminOrderUsecase struct {
	tx       repo.TransactionManager
	orders   repo.OrderRepository
	users    repo.UserRepository
	payments repo.PaymentRepository
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	users repo.UserRepository,
	payments repo.PaymentRepository,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, orders: orders, users: users, payments: payments}
}

// 監査カラムをまとめて積む
func adminAudit(fields map[string]interface{}, action string, adminID int64, notes string, at time.Time) {
	fields["last_admin_action"] = action
	fields["last_admin_action_by"] = adminID
	fields["last_admin_action_at"] = at
	if strings.TrimSpace(notes) != "" {
		fields["admin_notes"] = strings.TrimSpace(notes)
	}
}

func (u *AdminOrderUsecase) ListOrders(ctx context.Context, statuses []string, page, limit int) (OrderListOutput, error) {
	f := repo.OrderListFilter{}
	for _, s := range statuses {
		st := model.OrderStatus(s)
		if !st.Valid() {
			return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status filter")
		}
		f.Statuses = append(f.Statuses, st)
	}
	f.Page, f.Limit = normalizePage(page, limit)

	items, total, err := u.orders.List(ctx, f)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return OrderListOutput{Items: items, Pagination: newPagination(f.Page, f.Limit, total)}, nil
}

type UpdateStatusInput struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// 注文ステータスの更新。遷移表に従い、同値はno-opとして成功を返す。
func (u *AdminOrderUsecase) UpdateOrderStatus(ctx context.Context, adminID, orderID int64, in UpdateStatusInput) (model.Order, error) {
	next := model.OrderStatus(in.Status)
	if !next.Valid() {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid order status")
	}

	o, err := u.findOrder(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}

	//同値は何もしない
	if o.OrderStatus == next {
		return o, nil
	}
	if !o.OrderStatus.CanTransitionTo(next) {
		return model.Order{}, NewHTTPError(http.StatusConflict, "invalid status transition")
	}

	fields := map[string]interface{}{"order_status": next}
	adminAudit(fields, "update_order_status", adminID, in.Notes, time.Now())

	if err := u.orders.UpdateFields(ctx, orderID, fields); err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.findOrder(ctx, orderID)
}

// 配送ステータスの更新。遷移表で前進のみ。
func (u *AdminOrderUsecase) UpdateDeliveryStatus(ctx context.Context, adminID, orderID int64, in UpdateStatusInput) (model.Order, error) {
	next := model.DeliveryStatus(in.Status)
	if !next.Valid() {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid delivery status")
	}

	o, err := u.findOrder(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if o.DeliveryStatus == next {
		return o, nil
	}
	if !o.DeliveryStatus.CanTransitionTo(next) {
		return model.Order{}, NewHTTPError(http.StatusConflict, "invalid status transition")
	}

	fields := map[string]interface{}{"delivery_status": next}
	//配達完了で注文をongoingへ進める
	if next == model.DeliveryStatusDelivered && o.OrderStatus == model.OrderStatusUpcoming {
		fields["order_status"] = model.OrderStatusOngoing
	}
	adminAudit(fields, "update_delivery_status", adminID, in.Notes, time.Now())

	if err := u.orders.UpdateFields(ctx, orderID, fields); err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.findOrder(ctx, orderID)
}

func (u *AdminOrderUsecase) UpdatePaymentStatus(ctx context.Context, adminID, orderID int64, in UpdateStatusInput) (model.Order, error) {
	next := model.PaymentStatus(in.Status)
	if !next.Valid() {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid payment status")
	}

	o, err := u.findOrder(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if o.PaymentStatus == next {
		return o, nil
	}
	if !o.PaymentStatus.CanTransitionTo(next) {
		return model.Order{}, NewHTTPError(http.StatusConflict, "invalid status transition")
	}

	fields := map[string]interface{}{"payment_status": next}
	adminAudit(fields, "update_payment_status", adminID, in.Notes, time.Now())

	if err := u.orders.UpdateFields(ctx, orderID, fields); err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.findOrder(ctx, orderID)
}

type AssignDeliveryInput struct {
	DeliveryPartnerID int64  `json:"delivery_partner_id"`
	Notes             string `json:"notes"`
}

func (u *AdminOrderUsecase) AssignDeliveryPartner(ctx context.Context, adminID, orderID int64, in AssignDeliveryInput) (model.Order, error) {
	if in.DeliveryPartnerID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid delivery_partner_id")
	}

	partner, err := u.users.FindByID(ctx, in.DeliveryPartnerID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "delivery partner not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if partner.Role != model.RoleDeliveryPartner {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "user is not a delivery partner")
	}

	var out model.Order
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.OrderStatus == model.OrderStatusCancelled || o.OrderStatus == model.OrderStatusCompleted {
			return NewHTTPError(http.StatusConflict, "order is closed")
		}

		now := time.Now()
		fields := map[string]interface{}{
			"delivery_partner_id":  partner.ID,
			"delivery_assigned_at": now,
		}
		//未アサインからの割り当てでacceptedへ進める
		if o.DeliveryStatus == model.DeliveryStatusPending {
			fields["delivery_status"] = model.DeliveryStatusAccepted
		}
		adminAudit(fields, "assign_delivery_partner", adminID, in.Notes, now)

		if err := r.Orders().UpdateFields(ctx, o.ID, fields); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		n := model.Notification{
			UserID:           partner.ID,
			EventType:        model.EventDeliveryAssigned,
			PlaceholdersJSON: mustPlaceholders(map[string]string{"order_id": strconv.FormatInt(o.ID, 10)}),
			Status:           model.NotificationPending,
		}
		if err := r.Notifications().Create(ctx, &n); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out, err = r.Orders().FindByID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return model.Order{}, err
		}
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return out, nil
}

type ApplyLateFeeInput struct {
	Amount float64 `json:"amount"`
	Notes  string  `json:"notes"`
}

// 手動の延滞料加算。正の額のみ、加算はアトミック。
func (u *AdminOrderUsecase) ApplyLateFee(ctx context.Context, adminID, orderID int64, in ApplyLateFeeInput) (model.Order, error) {
	if in.Amount <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "amount must be > 0")
	}

	o, err := u.findOrder(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if o.OrderStatus == model.OrderStatusCancelled {
		return model.Order{}, NewHTTPError(http.StatusConflict, "order is cancelled")
	}

	var out model.Order
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := time.Now()
		if err := r.Orders().IncrementLateFee(ctx, orderID, in.Amount, now); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		fields := map[string]interface{}{"is_late_return": true}
		adminAudit(fields, "apply_late_fee", adminID, in.Notes, now)
		if err := r.Orders().UpdateFields(ctx, orderID, fields); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		n := model.Notification{
			UserID:    o.BuyerID,
			EventType: model.EventLateFeeApplied,
			PlaceholdersJSON: mustPlaceholders(map[string]string{
				"order_id": strconv.FormatInt(orderID, 10),
				"late_fee": strconv.FormatFloat(in.Amount, 'f', 2, 64),
			}),
			Status: model.NotificationPending,
		}
		if err := r.Notifications().Create(ctx, &n); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		var ferr error
		out, ferr = r.Orders().FindByID(ctx, orderID)
		if ferr != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return model.Order{}, err
		}
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return out, nil
}

type HandleDamageClaimInput struct {
	Approve   bool    `json:"approve"`
	DamageFee float64 `json:"damage_fee"`
	Notes     string  `json:"notes"`
}

// 破損申告の裁定。承認なら破損料を確定し保証金から充当する。
func (u *AdminOrderUsecase) HandleDamageClaim(ctx context.Context, adminID, orderID int64, in HandleDamageClaimInput) (model.Order, error) {
	o, err := u.findOrder(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if o.DamageClaimStatus != model.DamageClaimReported {
		return model.Order{}, NewHTTPError(http.StatusConflict, "no damage claim to review")
	}

	now := time.Now()
	fields := map[string]interface{}{
		"damage_reviewed_by": adminID,
		"damage_reviewed_at": now,
	}

	if in.Approve {
		if in.DamageFee <= 0 {
			return model.Order{}, NewHTTPError(http.StatusBadRequest, "damage_fee must be > 0")
		}
		if in.DamageFee > o.SecurityDeposit {
			return model.Order{}, NewHTTPError(http.StatusBadRequest, "damage_fee must not exceed security deposit")
		}
		fields["damage_claim_status"] = model.DamageClaimApproved
		fields["damage_fee"] = in.DamageFee
		adminAudit(fields, "approve_damage_claim", adminID, in.Notes, now)
	} else {
		fields["damage_claim_status"] = model.DamageClaimRejected
		adminAudit(fields, "reject_damage_claim", adminID, in.Notes, now)
	}

	if err := u.orders.UpdateFields(ctx, orderID, fields); err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.findOrder(ctx, orderID)
}

type ProcessDepositInput struct {
	Action       string  `json:"action"` // release / partially_refunded / forfeited
	RefundAmount float64 `json:"refund_amount"`
	Notes        string  `json:"notes"`
}

// 保証金の精算。全額返金・一部返金・没収の三択。
func (u *AdminOrderUsecase) ProcessSecurityDeposit(ctx context.Context, adminID, orderID int64, in ProcessDepositInput) (model.Order, error) {
	o, err := u.findOrder(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if o.SecurityDeposit <= 0 {
		return model.Order{}, NewHTTPError(http.StatusConflict, "order has no security deposit")
	}
	if o.SecurityDepositStatus != model.DepositStatusHeld {
		return model.Order{}, NewHTTPError(http.StatusConflict, "security deposit already settled")
	}

	now := time.Now()
	fields := map[string]interface{}{
		"security_deposit_released_at": now,
	}

	//actionは保証金ステータスの値そのもの
	var refund float64
	switch model.SecurityDepositStatus(in.Action) {
	case model.DepositStatusReleased:
		refund = o.SecurityDeposit
		fields["security_deposit_status"] = model.DepositStatusReleased
	case model.DepositStatusPartiallyRefunded:
		//一部返金は 0 < amount <= 保証金
		if in.RefundAmount <= 0 || in.RefundAmount > o.SecurityDeposit {
			return model.Order{}, NewHTTPError(http.StatusBadRequest, "refund_amount must be > 0 and <= security deposit")
		}
		refund = in.RefundAmount
		fields["security_deposit_status"] = model.DepositStatusPartiallyRefunded
	case model.DepositStatusForfeited:
		refund = 0
		fields["security_deposit_status"] = model.DepositStatusForfeited
	default:
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid action")
	}
	fields["security_deposit_refund_amount"] = refund
	adminAudit(fields, "process_security_deposit", adminID, in.Notes, now)

	var out model.Order
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Orders().UpdateFields(ctx, orderID, fields); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		n := model.Notification{
			UserID:    o.BuyerID,
			EventType: model.EventSecurityDepositRefunded,
			PlaceholdersJSON: mustPlaceholders(map[string]string{
				"order_id": strconv.FormatInt(orderID, 10),
				"amount":   strconv.FormatFloat(refund, 'f', 2, 64),
			}),
			Status: model.NotificationPending,
		}
		if err := r.Notifications().Create(ctx, &n); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		var ferr error
		out, ferr = r.Orders().FindByID(ctx, orderID)
		if ferr != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return model.Order{}, err
		}
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return out, nil
}

type AdminCancelInput struct {
	Reason string `json:"reason"`
}

// 管理者のレンタル中止。どの段階からでもcancelledへ落とせる（完了済みは除く）。
func (u *AdminOrderUsecase) CancelRental(ctx context.Context, adminID, orderID int64, in AdminCancelInput) (model.Order, error) {
	var out model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.OrderStatus == model.OrderStatusCompleted {
			return NewHTTPError(http.StatusConflict, "completed order cannot be cancelled")
		}
		if o.OrderStatus == model.OrderStatusCancelled {
			out = o
			return nil
		}

		now := time.Now()
		fields := map[string]interface{}{
			"order_status":    model.OrderStatusCancelled,
			"delivery_status": model.DeliveryStatusCancelled,
		}
		if o.SecurityDepositStatus == model.DepositStatusHeld {
			fields["security_deposit_status"] = model.DepositStatusReleased
			fields["security_deposit_refund_amount"] = o.SecurityDeposit
			fields["security_deposit_released_at"] = now
		}
		adminAudit(fields, "cancel_rental", adminID, in.Reason, now)

		if err := r.Orders().UpdateFields(ctx, o.ID, fields); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Products().UpdateAvailability(ctx, o.ProductID, model.AvailabilityAvailable); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		for _, uid := range []int64{o.BuyerID, o.SellerID} {
			n := model.Notification{
				UserID:           uid,
				EventType:        model.EventOrderCancelled,
				PlaceholdersJSON: mustPlaceholders(map[string]string{"order_id": strconv.FormatInt(o.ID, 10)}),
				Status:           model.NotificationPending,
			}
			if err := r.Notifications().Create(ctx, &n); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		out, err = r.Orders().FindByID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return model.Order{}, err
		}
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return out, nil
}

func (u *AdminOrderUsecase) ListOverdueOrders(ctx context.Context, page, limit int) (OrderListOutput, error) {
	page, limit = normalizePage(page, limit)
	items, total, err := u.orders.ListOverdue(ctx, time.Now(), page, limit)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return OrderListOutput{Items: items, Pagination: newPagination(page, limit, total)}, nil
}

func (u *AdminOrderUsecase) ListMissedPickups(ctx context.Context) ([]model.Order, error) {
	items, err := u.orders.ListMissedPickups(ctx, time.Now())
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

func (u *AdminOrderUsecase) ListSecurityDeposits(ctx context.Context) ([]model.Order, error) {
	items, err := u.orders.ListWithDeposit(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

type ProcessWithdrawalInput struct {
	Status string `json:"status"` // processing / completed
}

// 出金申請の処理。payment台帳の遷移表に従う。
func (u *AdminOrderUsecase) ProcessWithdrawal(ctx context.Context, paymentID int64, in ProcessWithdrawalInput) (model.Payment, error) {
	next := model.PaymentStatus(in.Status)
	if !next.Valid() {
		return model.Payment{}, NewHTTPError(http.StatusBadRequest, "invalid payment status")
	}

	p, err := u.payments.FindByID(ctx, paymentID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Payment{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Payment{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if p.PaymentType != model.PaymentTypeWithdrawal {
		return model.Payment{}, NewHTTPError(http.StatusBadRequest, "payment is not a withdrawal")
	}
	if p.PaymentStatus == next {
		return p, nil
	}
	if !p.PaymentStatus.CanTransitionTo(next) {
		return model.Payment{}, NewHTTPError(http.StatusConflict, "invalid status transition")
	}

	if err := u.payments.UpdateWithdrawalStatus(ctx, paymentID, next); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Payment{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.Payment{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	p.PaymentStatus = next
	return p, nil
}

func (u *AdminOrderUsecase) findOrder(ctx context.Context, orderID int64) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return o, nil
}
