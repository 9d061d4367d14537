package usecase

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"
)

// 延滞料の日割り係数（1日あたり日額レンタル料の10%）
const lateFeeDailyRate = 0.10

type OrderUsecase struct {
	tx     repo.TransactionManager
	orders repo.OrderRepository
	carts  repo.CartRepository
	users  repo.UserRepository
	promos repo.PromoRepository
	refs   repo.ReferralRepository
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	carts repo.CartRepository,
	users repo.UserRepository,
	promos repo.PromoRepository,
	refs repo.ReferralRepository,
) *OrderUsecase {
	return &OrderUsecase{
		tx:     tx,
		orders: orders,
		carts:  carts,
		users:  users,
		promos: promos,
		refs:   refs,
	}
}

type CheckoutInput struct {
	PromoCode       string `json:"promo_code"`
	PickupAddress   string `json:"pickup_address"`
	DeliveryAddress string `json:"delivery_address"`
}

type CheckoutOutput struct {
	Orders         []model.Order `json:"orders"`
	TotalAmount    float64       `json:"total_amount"`
	DiscountAmount float64       `json:"discount_amount"`
}

// カートの全明細をレンタル注文に確定する。
// 重複予約の再チェック・注文作成・プロモ消費・通知は同一トランザクション。
func (u *OrderUsecase) Checkout(ctx context.Context, buyerID int64, in CheckoutInput) (CheckoutOutput, error) {
	if buyerID <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.DeliveryAddress) == "" {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "delivery_address is required")
	}

	buyer, err := u.users.FindByID(ctx, buyerID)
	if err != nil {
		return CheckoutOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	now := time.Now()
	items, err := u.carts.ListByBuyer(ctx, buyerID, now)
	if err != nil {
		return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(items) == 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "cart is empty")
	}

	//プロモは先に解決・検証し、消費はトランザクション内で行う
	var promo *model.PromoCode
	if code := strings.TrimSpace(in.PromoCode); code != "" {
		p, err := u.promos.FindActiveByCode(ctx, code)
		if errors.Is(err, repo.ErrNotFound) {
			return CheckoutOutput{}, NewHTTPError(http.StatusNotFound, "promo code not found")
		}
		if err != nil {
			return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		promo = &p
	}

	var out CheckoutOutput
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		type pricedLine struct {
			item    model.CartItem
			product model.Product
			line    CartLineOutput
		}

		lines := make([]pricedLine, 0, len(items))
		var totalRental float64

		for _, item := range items {
			p, err := r.Products().FindByID(ctx, item.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusConflict, "a product in the cart no longer exists")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if p.Visibility != model.VisibilityVisible || p.AvailabilityStatus == model.AvailabilityUnavailable {
				return NewHTTPError(http.StatusConflict, "a product in the cart is no longer available")
			}

			//確定直前に重複予約を再チェック
			n, err := r.Orders().CountOverlapping(ctx, item.ProductID, item.RentalStartDate, item.RentalEndDate, blockingOrderStatuses)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if n > 0 {
				return NewHTTPError(http.StatusConflict, "a product in the cart is already booked for these dates")
			}

			line := priceCartLine(item, p)
			lines = append(lines, pricedLine{item: item, product: p, line: line})
			totalRental += line.RentalPrice
		}

		//割引はレンタル料合計に対して評価し、明細ごとに比例配分する
		var totalDiscount float64
		if promo != nil {
			d, err := evaluatePromo(ctx, r.Promos(), r.Referrals(), buyer, *promo, totalRental, now)
			if err != nil {
				return err
			}
			totalDiscount = d
		}

		var allocated float64
		orders := make([]model.Order, 0, len(lines))

		for i, pl := range lines {
			var discount float64
			if totalDiscount > 0 {
				if i == len(lines)-1 {
					discount = totalDiscount - allocated
				} else {
					discount = math.Floor(totalDiscount*pl.line.RentalPrice/totalRental*100) / 100
					allocated += discount
				}
			}

			commission := pl.line.RentalPrice * pl.product.SecurityDepositPercentage / 100

			o := model.Order{
				BuyerID:            buyerID,
				SellerID:           pl.product.SellerID,
				ProductID:          pl.product.ID,
				RentalStartDate:    pl.item.RentalStartDate,
				RentalEndDate:      pl.item.RentalEndDate,
				RentalDurationDays: pl.item.RentalDurationDays,
				ExpectedReturnDate: pl.item.RentalEndDate,
				TotalRentalPrice:   pl.line.RentalPrice,
				SecurityDeposit:    pl.line.SecurityDeposit,
				TryOnFee:           pl.line.TryOnFee,
				DiscountAmount:     discount,
				CommissionAmount:   commission,
				TotalAmount:        pl.line.LineTotal - discount,
				OrderStatus:        model.OrderStatusUpcoming,
				DeliveryStatus:     model.DeliveryStatusPending,
				PaymentStatus:      model.PaymentStatusPending,
				DamageClaimStatus:  model.DamageClaimNone,

				SecurityDepositStatus: model.DepositStatusHeld,
				PickupAddress:         strings.TrimSpace(in.PickupAddress),
				DeliveryAddress:       strings.TrimSpace(in.DeliveryAddress),
			}
			if promo != nil {
				o.PromoCodeID = &promo.ID
			}

			if err := r.Orders().Create(ctx, &o); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			orders = append(orders, o)

			//支払い台帳行
			pay := model.Payment{
				UserID:        buyerID,
				OrderID:       &o.ID,
				Amount:        o.TotalAmount,
				PaymentType:   model.PaymentTypeRental,
				PaymentStatus: model.PaymentStatusPending,
			}
			if err := r.Payments().Create(ctx, &pay); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			if err := r.Products().UpdateAvailability(ctx, pl.product.ID, model.AvailabilityBooked); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			//買い手と売り手へoutbox経由で通知
			nBuyer := model.Notification{
				UserID:    buyerID,
				EventType: model.EventRentalConfirmed,
				PlaceholdersJSON: mustPlaceholders(map[string]string{
					"title":    pl.product.Title,
					"order_id": strconv.FormatInt(o.ID, 10),
				}),
				Status: model.NotificationPending,
			}
			nSeller := model.Notification{
				UserID:    pl.product.SellerID,
				EventType: model.EventProductBooked,
				PlaceholdersJSON: mustPlaceholders(map[string]string{
					"title":    pl.product.Title,
					"order_id": strconv.FormatInt(o.ID, 10),
				}),
				Status: model.NotificationPending,
			}
			if err := r.Notifications().Create(ctx, &nBuyer); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if err := r.Notifications().Create(ctx, &nSeller); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		//プロモの消費は一度だけ
		if promo != nil && totalDiscount > 0 {
			if err := r.Promos().IncrementUsage(ctx, promo.ID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			claim := model.PromoCodeClaim{UserID: buyerID, PromoCodeID: promo.ID}
			if err := r.Promos().CreateClaim(ctx, &claim); err != nil && !errors.Is(err, repo.ErrConflict) {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		if err := r.Carts().DeleteAllByBuyer(ctx, buyerID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out.Orders = orders
		out.DiscountAmount = totalDiscount
		for _, o := range orders {
			out.TotalAmount += o.TotalAmount
		}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return CheckoutOutput{}, err
		}
		return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return out, nil
}

// 注文の当事者（買い手・売り手・担当配達員）か管理者だけ閲覧できる。
func (u *OrderUsecase) GetOrder(ctx context.Context, userID int64, role model.Role, orderID int64) (model.Order, error) {
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

	if role != model.RoleAdmin &&
		o.BuyerID != userID &&
		o.SellerID != userID &&
		(o.DeliveryPartnerID == nil || *o.DeliveryPartnerID != userID) {
		return model.Order{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return o, nil
}

type OrderListOutput struct {
	Items      []model.Order `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

func (u *OrderUsecase) ListBuyerOrders(ctx context.Context, buyerID int64, statuses []string, page, limit int) (OrderListOutput, error) {
	if buyerID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.list(ctx, repo.OrderListFilter{BuyerID: &buyerID}, statuses, page, limit)
}

func (u *OrderUsecase) ListSellerOrders(ctx context.Context, sellerID int64, statuses []string, page, limit int) (OrderListOutput, error) {
	if sellerID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.list(ctx, repo.OrderListFilter{SellerID: &sellerID}, statuses, page, limit)
}

func (u *OrderUsecase) list(ctx context.Context, f repo.OrderListFilter, statuses []string, page, limit int) (OrderListOutput, error) {
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
	return OrderListOutput{
		Items:      items,
		Pagination: newPagination(f.Page, f.Limit, total),
	}, nil
}

type ProcessReturnInput struct {
	CollectionPhotoURL string `json:"collection_photo_url"`
}

type ProcessReturnOutput struct {
	Order    model.Order `json:"order"`
	DaysLate int         `json:"days_late"`
	LateFee  float64     `json:"late_fee"`
}

// 返却処理。担当配達員か管理者のみ。
// 延滞していれば日割り延滞料（日額の10%×延滞日数）を加算する。
func (u *OrderUsecase) ProcessReturn(ctx context.Context, actorID int64, role model.Role, orderID int64, in ProcessReturnInput) (ProcessReturnOutput, error) {
	if orderID <= 0 {
		return ProcessReturnOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var out ProcessReturnOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if role != model.RoleAdmin && (o.DeliveryPartnerID == nil || *o.DeliveryPartnerID != actorID) {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}
		if o.OrderStatus != model.OrderStatusOngoing && o.OrderStatus != model.OrderStatusLate {
			return NewHTTPError(http.StatusConflict, "order is not in a returnable state")
		}
		if o.ActualReturnDate != nil {
			return NewHTTPError(http.StatusConflict, "order already returned")
		}

		now := time.Now()
		daysLate, lateFee := CalcLateFee(o, now)

		//延滞返却はlateのまま精算に回す。期日内ならcompleted。
		finalStatus := model.OrderStatusCompleted
		if daysLate > 0 {
			finalStatus = model.OrderStatusLate
		}

		fields := map[string]interface{}{
			"actual_return_date": now,
			"is_late_return":     daysLate > 0,
			"order_status":       finalStatus,
			"delivery_status":    model.DeliveryStatusReturned,
		}
		if strings.TrimSpace(in.CollectionPhotoURL) != "" {
			fields["collection_photo_url"] = strings.TrimSpace(in.CollectionPhotoURL)
		}
		if err := r.Orders().UpdateFields(ctx, o.ID, fields); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if lateFee > 0 {
			if err := r.Orders().IncrementLateFee(ctx, o.ID, lateFee, now); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		if err := r.Products().UpdateAvailability(ctx, o.ProductID, model.AvailabilityAvailable); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//最初の注文完了で紹介を成立させる
		if err := completeReferralIfFirst(ctx, r, o.BuyerID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		events := []model.Notification{
			{
				UserID:           o.BuyerID,
				EventType:        model.EventProductReturned,
				PlaceholdersJSON: mustPlaceholders(map[string]string{"order_id": strconv.FormatInt(o.ID, 10)}),
				Status:           model.NotificationPending,
			},
			{
				UserID:           o.SellerID,
				EventType:        model.EventProductReturned,
				PlaceholdersJSON: mustPlaceholders(map[string]string{"order_id": strconv.FormatInt(o.ID, 10)}),
				Status:           model.NotificationPending,
			},
		}
		if daysLate > 0 {
			events = append(events, model.Notification{
				UserID:    o.BuyerID,
				EventType: model.EventLateFeeApplied,
				PlaceholdersJSON: mustPlaceholders(map[string]string{
					"order_id":  strconv.FormatInt(o.ID, 10),
					"days_late": strconv.Itoa(daysLate),
					"late_fee":  strconv.FormatFloat(lateFee, 'f', 2, 64),
				}),
				Status: model.NotificationPending,
			})
		}
		for i := range events {
			if err := r.Notifications().Create(ctx, &events[i]); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		updated, err := r.Orders().FindByID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = ProcessReturnOutput{Order: updated, DaysLate: daysLate, LateFee: lateFee}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return ProcessReturnOutput{}, err
		}
		return ProcessReturnOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return out, nil
}

// 買い手のキャンセル。配達が動き出す前（pending/accepted）だけ許す。
func (u *OrderUsecase) CancelOrder(ctx context.Context, buyerID, orderID int64) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
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
		if o.BuyerID != buyerID {
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
		}
		if err := r.Orders().UpdateFields(ctx, o.ID, fields); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Products().UpdateAvailability(ctx, o.ProductID, model.AvailabilityAvailable); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		n := model.Notification{
			UserID:           o.SellerID,
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

// 延滞日数と延滞料。返却予定日を過ぎた日数（切り上げ）×日額×10%。
func CalcLateFee(o model.Order, returnedAt time.Time) (int, float64) {
	if !returnedAt.After(o.ExpectedReturnDate) {
		return 0, 0
	}
	daysLate := int(math.Ceil(returnedAt.Sub(o.ExpectedReturnDate).Hours() / 24))
	if daysLate <= 0 {
		return 0, 0
	}
	if o.RentalDurationDays <= 0 {
		return daysLate, 0
	}
	dailyRate := o.TotalRentalPrice / float64(o.RentalDurationDays)
	return daysLate, float64(daysLate) * dailyRate * lateFeeDailyRate
}
