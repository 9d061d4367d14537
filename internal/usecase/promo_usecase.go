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

// new_users適格の閾値（アカウント作成からの日数）
const newUserMaxAgeDays = 30

type PromoUsecase struct {
	promos    repo.PromoRepository
	referrals repo.ReferralRepository
	users     repo.UserRepository
}

func NewPromoUsecase(
	promos repo.PromoRepository,
	referrals repo.ReferralRepository,
	users repo.UserRepository,
) *PromoUsecase {
	return &PromoUsecase{promos: promos, referrals: referrals, users: users}
}

type ValidatePromoInput struct {
	Code        string  `json:"code"`
	OrderAmount float64 `json:"order_amount"`
}

type ValidatePromoOutput struct {
	PromoCodeID    int64   `json:"promo_code_id"`
	Code           string  `json:"code"`
	DiscountAmount float64 `json:"discount_amount"`
}

// チェックアウト前の事前検証。割引額の見積もりだけ返し、消費はしない。
func (u *PromoUsecase) ValidatePromoCode(ctx context.Context, userID int64, in ValidatePromoInput) (ValidatePromoOutput, error) {
	if userID <= 0 {
		return ValidatePromoOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.OrderAmount <= 0 {
		return ValidatePromoOutput{}, NewHTTPError(http.StatusBadRequest, "order_amount must be > 0")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return ValidatePromoOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	promo, err := u.promos.FindActiveByCode(ctx, strings.TrimSpace(in.Code))
	if errors.Is(err, repo.ErrNotFound) {
		return ValidatePromoOutput{}, NewHTTPError(http.StatusNotFound, "promo code not found")
	}
	if err != nil {
		return ValidatePromoOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	discount, err := evaluatePromo(ctx, u.promos, u.referrals, user, promo, in.OrderAmount, time.Now())
	if err != nil {
		return ValidatePromoOutput{}, err
	}

	return ValidatePromoOutput{
		PromoCodeID:    promo.ID,
		Code:           promo.Code,
		DiscountAmount: discount,
	}, nil
}

// 検証チェーン。先に引っかかった条件で打ち切る。
// 順序: 有効フラグ → 期限 → 利用回数上限 → 紹介特典条件 → 適格条件 → 最低注文額。
func evaluatePromo(
	ctx context.Context,
	promos repo.PromoRepository,
	referrals repo.ReferralRepository,
	user model.User,
	promo model.PromoCode,
	orderAmount float64,
	now time.Time,
) (float64, error) {
	if !promo.IsActive {
		return 0, NewHTTPError(http.StatusBadRequest, "promo code is inactive")
	}
	if promo.ExpiryDate.Before(now) {
		return 0, NewHTTPError(http.StatusBadRequest, "promo code has expired")
	}
	if promo.MaxUsageCount > 0 && promo.UsageCount >= promo.MaxUsageCount {
		return 0, NewHTTPError(http.StatusBadRequest, "promo code usage limit reached")
	}

	//紹介特典コードは達成数と一回限りの両方を満たすこと
	reward, err := referrals.FindRewardByPromoCode(ctx, promo.ID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err == nil {
		completed, err := referrals.CountCompletedByReferrer(ctx, user.ID)
		if err != nil {
			return 0, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if completed < int64(reward.RequiredReferrals) {
			return 0, NewHTTPError(http.StatusForbidden, "not enough completed referrals")
		}
		claimed, err := promos.HasClaim(ctx, user.ID, promo.ID)
		if err != nil {
			return 0, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if claimed {
			return 0, NewHTTPError(http.StatusBadRequest, "promo code already used")
		}
	}

	if err := checkEligibility(user, promo, now); err != nil {
		return 0, err
	}

	if orderAmount < promo.MinOrderAmount {
		return 0, NewHTTPError(http.StatusBadRequest, "order amount below minimum for this promo code")
	}

	return calcDiscount(promo, orderAmount), nil
}

func checkEligibility(user model.User, promo model.PromoCode, now time.Time) error {
	switch promo.Eligibility {
	case model.EligibilityAll:
		return nil
	case model.EligibilityNewUsers:
		if now.Sub(user.CreatedAt) >= newUserMaxAgeDays*24*time.Hour {
			return NewHTTPError(http.StatusForbidden, "promo code is for new users only")
		}
		return nil
	case model.EligibilityBuyers:
		if user.Role != model.RoleBuyer {
			return NewHTTPError(http.StatusForbidden, "promo code is for buyers only")
		}
		return nil
	case model.EligibilitySellers:
		if user.Role != model.RoleSeller {
			return NewHTTPError(http.StatusForbidden, "promo code is for sellers only")
		}
		return nil
	case model.EligibilitySpecificUsers:
		for _, s := range strings.Split(promo.SpecificUserIDs, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err == nil && id == user.ID {
				return nil
			}
		}
		return NewHTTPError(http.StatusForbidden, "promo code is not available for this account")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// 割引額の計算。percentageは上限でクランプ、注文額は超えない。
func calcDiscount(promo model.PromoCode, orderAmount float64) float64 {
	var discount float64
	switch promo.DiscountType {
	case model.DiscountFlat:
		discount = promo.DiscountValue
	case model.DiscountPercentage:
		discount = orderAmount * promo.DiscountValue / 100
		if promo.MaxDiscountAmount > 0 && discount > promo.MaxDiscountAmount {
			discount = promo.MaxDiscountAmount
		}
	}
	if discount > orderAmount {
		discount = orderAmount
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

type CreatePromoInput struct {
	Code              string  `json:"code"`
	DiscountType      string  `json:"discount_type"`
	DiscountValue     float64 `json:"discount_value"`
	MaxDiscountAmount float64 `json:"max_discount_amount"`
	MinOrderAmount    float64 `json:"min_order_amount"`
	ExpiryDate        string  `json:"expiry_date"` // YYYY-MM-DD
	Eligibility       string  `json:"eligibility"`
	SpecificUserIDs   []int64 `json:"specific_user_ids"`
	MaxUsageCount     int     `json:"max_usage_count"`
}

func (u *PromoUsecase) CreatePromoCode(ctx context.Context, in CreatePromoInput) (model.PromoCode, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return model.PromoCode{}, NewHTTPError(http.StatusBadRequest, "code is required")
	}

	dt := model.DiscountType(in.DiscountType)
	switch dt {
	case model.DiscountFlat:
		if in.DiscountValue <= 0 {
			return model.PromoCode{}, NewHTTPError(http.StatusBadRequest, "discount_value must be > 0")
		}
	case model.DiscountPercentage:
		if in.DiscountValue <= 0 || in.DiscountValue > 100 {
			return model.PromoCode{}, NewHTTPError(http.StatusBadRequest, "discount_value must be between 0 and 100")
		}
	default:
		return model.PromoCode{}, NewHTTPError(http.StatusBadRequest, "invalid discount_type")
	}

	expiry, err := time.Parse(dateLayout, in.ExpiryDate)
	if err != nil {
		return model.PromoCode{}, NewHTTPError(http.StatusBadRequest, "invalid expiry_date")
	}
	if expiry.Before(time.Now()) {
		return model.PromoCode{}, NewHTTPError(http.StatusBadRequest, "expiry_date must be in the future")
	}

	elig := model.Eligibility(in.Eligibility)
	if elig == "" {
		elig = model.EligibilityAll
	}
	switch elig {
	case model.EligibilityAll, model.EligibilityNewUsers, model.EligibilityBuyers,
		model.EligibilitySellers, model.EligibilitySpecificUsers:
	default:
		return model.PromoCode{}, NewHTTPError(http.StatusBadRequest, "invalid eligibility")
	}

	var idsCSV string
	if elig == model.EligibilitySpecificUsers {
		if len(in.SpecificUserIDs) == 0 {
			return model.PromoCode{}, NewHTTPError(http.StatusBadRequest, "specific_user_ids is required")
		}
		parts := make([]string, 0, len(in.SpecificUserIDs))
		for _, id := range in.SpecificUserIDs {
			parts = append(parts, strconv.FormatInt(id, 10))
		}
		idsCSV = strings.Join(parts, ",")
	}

	p := model.PromoCode{
		Code:              code,
		DiscountType:      dt,
		DiscountValue:     in.DiscountValue,
		MaxDiscountAmount: in.MaxDiscountAmount,
		MinOrderAmount:    in.MinOrderAmount,
		ExpiryDate:        expiry,
		Eligibility:       elig,
		SpecificUserIDs:   idsCSV,
		MaxUsageCount:     in.MaxUsageCount,
		IsActive:          true,
	}
	if err := u.promos.Create(ctx, &p); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return model.PromoCode{}, NewHTTPError(http.StatusConflict, "promo code already exists")
		}
		return model.PromoCode{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

func (u *PromoUsecase) ListPromoCodes(ctx context.Context) ([]model.PromoCode, error) {
	items, err := u.promos.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

func (u *PromoUsecase) DeactivatePromoCode(ctx context.Context, promoID int64) error {
	p, err := u.promos.FindByID(ctx, promoID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	p.IsActive = false
	if err := u.promos.Update(ctx, &p); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
