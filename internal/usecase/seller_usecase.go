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

type SellerUsecase struct {
	tx       repo.TransactionManager
	orders   repo.OrderRepository
	payments repo.PaymentRepository
}

func NewSellerUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	payments repo.PaymentRepository,
) *SellerUsecase {
	return &SellerUsecase{tx: tx, orders: orders, payments: payments}
}

type ReportDamageInput struct {
	Description string   `json:"description"`
	PhotoURLs   []string `json:"photo_urls"`
}

// 破損申告。返却済みの注文に対してのみ、売り手本人が一度だけ。
func (u *SellerUsecase) ReportDamage(ctx context.Context, sellerID, orderID int64, in ReportDamageInput) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	if strings.TrimSpace(in.Description) == "" {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "description is required")
	}

	var out model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.SellerID != sellerID {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}
		if o.DeliveryStatus != model.DeliveryStatusReturned && o.DeliveryStatus != model.DeliveryStatusReturnedDamaged {
			return NewHTTPError(http.StatusConflict, "damage can only be reported after the product is returned")
		}
		if o.DamageClaimStatus != model.DamageClaimNone {
			return NewHTTPError(http.StatusConflict, "damage claim already exists")
		}

		fields := map[string]interface{}{
			"damage_claim_status":      model.DamageClaimReported,
			"damage_claim_description": strings.TrimSpace(in.Description),
			"damage_claim_photos":      strings.Join(in.PhotoURLs, ","),
			"delivery_status":          model.DeliveryStatusReturnedDamaged,
		}
		if err := r.Orders().UpdateFields(ctx, o.ID, fields); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		n := model.Notification{
			UserID:           o.BuyerID,
			EventType:        model.EventDamageReported,
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

type SellerCancelInput struct {
	Reason string `json:"reason"`
}

// 売り手都合のキャンセル。買い手側と同じく配達が動く前だけ。
func (u *SellerUsecase) CancelOrder(ctx context.Context, sellerID, orderID int64, in SellerCancelInput) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "reason is required")
	}

	var out model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.SellerID != sellerID {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}
		if o.OrderStatus != model.OrderStatusUpcoming {
			return NewHTTPError(http.StatusConflict, "order can no longer be cancelled")
		}
		if o.DeliveryStatus != model.DeliveryStatusPending && o.DeliveryStatus != model.DeliveryStatusAccepted {
			return NewHTTPError(http.StatusConflict, "order can no longer be cancelled")
		}

		now := time.Now()
		fields := map[string]interface{}{
			"order_status":                   model.OrderStatusCancelled,
			"delivery_status":                model.DeliveryStatusCancelled,
			"security_deposit_status":        model.DepositStatusReleased,
			"security_deposit_refund_amount": o.SecurityDeposit,
			"security_deposit_released_at":   now,
			"admin_notes":                    strings.TrimSpace(in.Reason),
		}
		if err := r.Orders().UpdateFields(ctx, o.ID, fields); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Products().UpdateAvailability(ctx, o.ProductID, model.AvailabilityAvailable); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		n := model.Notification{
			UserID:           o.BuyerID,
			EventType:        model.EventOrderCancelled,
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

func (u *SellerUsecase) GetEarnings(ctx context.Context, sellerID int64) (repo.SellerEarnings, error) {
	if sellerID <= 0 {
		return repo.SellerEarnings{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	e, err := u.orders.EarningsBySeller(ctx, sellerID)
	if err != nil {
		return repo.SellerEarnings{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return e, nil
}

type WithdrawalInput struct {
	Amount float64 `json:"amount"`
}

// 出金申請。台帳に行を積むだけで、処理は管理者が進める。
func (u *SellerUsecase) RequestWithdrawal(ctx context.Context, sellerID int64, in WithdrawalInput) (model.Payment, error) {
	if sellerID <= 0 {
		return model.Payment{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.Amount <= 0 {
		return model.Payment{}, NewHTTPError(http.StatusBadRequest, "amount must be > 0")
	}

	e, err := u.orders.EarningsBySeller(ctx, sellerID)
	if err != nil {
		return model.Payment{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if in.Amount > e.TotalEarnings {
		return model.Payment{}, NewHTTPError(http.StatusBadRequest, "amount exceeds available earnings")
	}

	p := model.Payment{
		UserID:        sellerID,
		Amount:        in.Amount,
		PaymentType:   model.PaymentTypeWithdrawal,
		PaymentStatus: model.PaymentStatusPending,
	}
	if err := u.payments.Create(ctx, &p); err != nil {
		return model.Payment{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

func (u *SellerUsecase) ListPayments(ctx context.Context, sellerID int64) ([]model.Payment, error) {
	if sellerID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	items, err := u.payments.ListByUser(ctx, sellerID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}
