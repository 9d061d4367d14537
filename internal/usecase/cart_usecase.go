package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"
)

// カート明細の寿命
const cartItemTTL = 7 * 24 * time.Hour

// 試着オプションの固定料金
const tryOnFeeFlat = 50.0

// 空き判定で衝突とみなす注文ステータス
var blockingOrderStatuses = []model.OrderStatus{
	model.OrderStatusUpcoming,
	model.OrderStatusOngoing,
	model.OrderStatusLate,
}

type CartUsecase struct {
	carts    repo.CartRepository
	products repo.ProductRepository
	orders   repo.OrderRepository
}

func NewCartUsecase(
	carts repo.CartRepository,
	products repo.ProductRepository,
	orders repo.OrderRepository,
) *CartUsecase {
	return &CartUsecase{carts: carts, products: products, orders: orders}
}

type AddToCartInput struct {
	ProductID       int64  `json:"product_id"`
	RentalStartDate string `json:"rental_start_date"` // YYYY-MM-DD
	RentalEndDate   string `json:"rental_end_date"`   // YYYY-MM-DD
	TryOnRequested  bool   `json:"try_on_requested"`
}

func (u *CartUsecase) AddToCart(ctx context.Context, buyerID int64, in AddToCartInput) (model.CartItem, error) {
	if buyerID <= 0 {
		return model.CartItem{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return model.CartItem{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	start, end, err := parseRentalWindow(in.RentalStartDate, in.RentalEndDate)
	if err != nil {
		return model.CartItem{}, err
	}

	p, err := u.products.FindByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartItem{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.CartItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//availableフラグとの一致は重複チェックとは独立の条件
	if p.Visibility != model.VisibilityVisible || p.AvailabilityStatus != model.AvailabilityAvailable {
		return model.CartItem{}, NewHTTPError(http.StatusConflict, "product is not available")
	}
	//自分の出品は借りられない
	if p.SellerID == buyerID {
		return model.CartItem{}, NewHTTPError(http.StatusBadRequest, "cannot rent own product")
	}

	ok, err := u.isWindowFree(ctx, in.ProductID, start, end)
	if err != nil {
		return model.CartItem{}, err
	}
	if !ok {
		return model.CartItem{}, NewHTTPError(http.StatusConflict, "product is already booked for these dates")
	}

	now := time.Now()
	item := model.CartItem{
		BuyerID:            buyerID,
		ProductID:          in.ProductID,
		RentalStartDate:    start,
		RentalEndDate:      end,
		RentalDurationDays: durationDays(start, end),
		TryOnRequested:     in.TryOnRequested,
		ExpiresAt:          now.Add(cartItemTTL),
	}

	//同じ商品が既にカートにあれば上書き
	existing, err := u.carts.FindByBuyerAndProduct(ctx, buyerID, in.ProductID, now)
	if err == nil {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
		if err := u.carts.Update(ctx, &item); err != nil {
			return model.CartItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return item, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return model.CartItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.carts.Create(ctx, &item); err != nil {
		return model.CartItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return item, nil
}

type CartLineOutput struct {
	Item            model.CartItem `json:"item"`
	Product         model.Product  `json:"product"`
	RentalPrice     float64        `json:"rental_price"`
	SecurityDeposit float64        `json:"security_deposit"`
	TryOnFee        float64        `json:"try_on_fee"`
	LineTotal       float64        `json:"line_total"`
}

type CartOutput struct {
	Lines                []CartLineOutput `json:"lines"`
	TotalRentalPrice     float64          `json:"total_rental_price"`
	TotalSecurityDeposit float64          `json:"total_security_deposit"`
	TotalTryOnFee        float64          `json:"total_try_on_fee"`
	GrandTotal           float64          `json:"grand_total"`
}

func (u *CartUsecase) GetCart(ctx context.Context, buyerID int64) (CartOutput, error) {
	if buyerID <= 0 {
		return CartOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := u.carts.ListByBuyer(ctx, buyerID, time.Now())
	if err != nil {
		return CartOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := CartOutput{Lines: []CartLineOutput{}}
	for _, item := range items {
		p, err := u.products.FindByID(ctx, item.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			//商品が消えた明細は表示しない
			continue
		}
		if err != nil {
			return CartOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		line := priceCartLine(item, p)
		out.Lines = append(out.Lines, line)
		out.TotalRentalPrice += line.RentalPrice
		out.TotalSecurityDeposit += line.SecurityDeposit
		out.TotalTryOnFee += line.TryOnFee
		out.GrandTotal += line.LineTotal
	}
	return out, nil
}

type UpdateCartItemInput struct {
	RentalStartDate *string `json:"rental_start_date"`
	RentalEndDate   *string `json:"rental_end_date"`
	TryOnRequested  *bool   `json:"try_on_requested"`
}

func (u *CartUsecase) UpdateCartItem(ctx context.Context, buyerID, productID int64, in UpdateCartItemInput) (model.CartItem, error) {
	if buyerID <= 0 {
		return model.CartItem{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	item, err := u.carts.FindByBuyerAndProduct(ctx, buyerID, productID, time.Now())
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.CartItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	startStr := item.RentalStartDate.Format(dateLayout)
	endStr := item.RentalEndDate.Format(dateLayout)
	if in.RentalStartDate != nil {
		startStr = *in.RentalStartDate
	}
	if in.RentalEndDate != nil {
		endStr = *in.RentalEndDate
	}

	if in.RentalStartDate != nil || in.RentalEndDate != nil {
		start, end, err := parseRentalWindow(startStr, endStr)
		if err != nil {
			return model.CartItem{}, err
		}
		ok, err := u.isWindowFree(ctx, productID, start, end)
		if err != nil {
			return model.CartItem{}, err
		}
		if !ok {
			return model.CartItem{}, NewHTTPError(http.StatusConflict, "product is already booked for these dates")
		}
		item.RentalStartDate = start
		item.RentalEndDate = end
		item.RentalDurationDays = durationDays(start, end)
	}
	if in.TryOnRequested != nil {
		item.TryOnRequested = *in.TryOnRequested
	}

	if err := u.carts.Update(ctx, &item); err != nil {
		return model.CartItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return item, nil
}

func (u *CartUsecase) RemoveFromCart(ctx context.Context, buyerID, productID int64) error {
	if buyerID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	err := u.carts.Delete(ctx, buyerID, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *CartUsecase) ClearCart(ctx context.Context, buyerID int64) error {
	if buyerID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.carts.DeleteAllByBuyer(ctx, buyerID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

type AvailabilityOutput struct {
	ProductID int64 `json:"product_id"`
	Available bool  `json:"available"`
}

// 指定期間に重複予約がないか。比較は両端を含む。
func (u *CartUsecase) CheckProductAvailability(ctx context.Context, productID int64, startStr, endStr string) (AvailabilityOutput, error) {
	if productID <= 0 {
		return AvailabilityOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	start, end, err := parseRentalWindow(startStr, endStr)
	if err != nil {
		return AvailabilityOutput{}, err
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return AvailabilityOutput{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return AvailabilityOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//フラグがavailable以外（booked含む）は重複を見るまでもなく不可
	if p.Visibility != model.VisibilityVisible || p.AvailabilityStatus != model.AvailabilityAvailable {
		return AvailabilityOutput{ProductID: productID, Available: false}, nil
	}

	ok, err := u.isWindowFree(ctx, productID, start, end)
	if err != nil {
		return AvailabilityOutput{}, err
	}
	return AvailabilityOutput{ProductID: productID, Available: ok}, nil
}

func (u *CartUsecase) isWindowFree(ctx context.Context, productID int64, start, end time.Time) (bool, error) {
	n, err := u.orders.CountOverlapping(ctx, productID, start, end, blockingOrderStatuses)
	if err != nil {
		return false, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return n == 0, nil
}

const dateLayout = "2006-01-02"

// 開始・終了の妥当性チェック。過去開始と逆転は弾く。
func parseRentalWindow(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, NewHTTPError(http.StatusBadRequest, "invalid rental_start_date")
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, NewHTTPError(http.StatusBadRequest, "invalid rental_end_date")
	}
	today := time.Now().Truncate(24 * time.Hour)
	if start.Before(today) {
		return time.Time{}, time.Time{}, NewHTTPError(http.StatusBadRequest, "rental_start_date must not be in the past")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, NewHTTPError(http.StatusBadRequest, "rental_end_date must not be before rental_start_date")
	}
	return start, end, nil
}

// 両端を含む日数
func durationDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

func priceCartLine(item model.CartItem, p model.Product) CartLineOutput {
	rental := float64(item.RentalDurationDays) * p.RentalPricePerDay
	deposit := rental * p.SecurityDepositPercentage / 100
	tryOn := 0.0
	if item.TryOnRequested {
		tryOn = tryOnFeeFlat
	}
	return CartLineOutput{
		Item:            item,
		Product:         p,
		RentalPrice:     rental,
		SecurityDeposit: deposit,
		TryOnFee:        tryOn,
		LineTotal:       rental + deposit + tryOn,
	}
}
