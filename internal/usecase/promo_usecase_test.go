package usecase

import (
	"context"
	"net/http"
	"testing"
	"time"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks
// =====================

type promoRepoMock struct{ mock.Mock }

func (m *promoRepoMock) FindByID(ctx context.Context, promoID int64) (model.PromoCode, error) {
	panic("not used")
}
func (m *promoRepoMock) FindActiveByCode(ctx context.Context, code string) (model.PromoCode, error) {
	args := m.Called(ctx, code)
	p, _ := args.Get(0).(model.PromoCode)
	return p, args.Error(1)
}
func (m *promoRepoMock) Create(ctx context.Context, p *model.PromoCode) error { panic("not used") }
func (m *promoRepoMock) Update(ctx context.Context, p *model.PromoCode) error { panic("not used") }
func (m *promoRepoMock) List(ctx context.Context) ([]model.PromoCode, error)  { panic("not used") }
func (m *promoRepoMock) IncrementUsage(ctx context.Context, promoID int64) error {
	panic("not used")
}
func (m *promoRepoMock) HasClaim(ctx context.Context, userID, promoID int64) (bool, error) {
	args := m.Called(ctx, userID, promoID)
	return args.Bool(0), args.Error(1)
}
func (m *promoRepoMock) CreateClaim(ctx context.Context, claim *model.PromoCodeClaim) error {
	panic("not used")
}

type referralRepoMock struct{ mock.Mock }

func (m *referralRepoMock) Create(ctx context.Context, r *model.Referral) error { panic("not used") }
func (m *referralRepoMock) Update(ctx context.Context, r *model.Referral) error { panic("not used") }
func (m *referralRepoMock) FindByID(ctx context.Context, referralID int64) (model.Referral, error) {
	panic("not used")
}
func (m *referralRepoMock) FindPendingByReferred(ctx context.Context, referredID int64) (model.Referral, error) {
	args := m.Called(ctx, referredID)
	ref, _ := args.Get(0).(model.Referral)
	return ref, args.Error(1)
}
func (m *referralRepoMock) ExistsByReferred(ctx context.Context, referredID int64) (bool, error) {
	panic("not used")
}
func (m *referralRepoMock) ListByReferrer(ctx context.Context, referrerID int64) ([]model.Referral, error) {
	panic("not used")
}
func (m *referralRepoMock) CountCompletedByReferrer(ctx context.Context, referrerID int64) (int64, error) {
	args := m.Called(ctx, referrerID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *referralRepoMock) FindRewardByPromoCode(ctx context.Context, promoCodeID int64) (model.ReferralReward, error) {
	args := m.Called(ctx, promoCodeID)
	rw, _ := args.Get(0).(model.ReferralReward)
	return rw, args.Error(1)
}
func (m *referralRepoMock) CreateReward(ctx context.Context, rw *model.ReferralReward) error {
	panic("not used")
}

// =====================
// calcDiscount
// =====================

func TestCalcDiscountFlat(t *testing.T) {
	p := model.PromoCode{DiscountType: model.DiscountFlat, DiscountValue: 300}
	assert.Equal(t, 300.0, calcDiscount(p, 1000))
	//注文額は超えない
	assert.Equal(t, 200.0, calcDiscount(p, 200))
}

func TestCalcDiscountPercentage(t *testing.T) {
	p := model.PromoCode{
		DiscountType:      model.DiscountPercentage,
		DiscountValue:     20,
		MaxDiscountAmount: 200,
	}
	assert.Equal(t, 100.0, calcDiscount(p, 500))
	//上限でクランプ: 20% of 5000 = 1000 > 200
	assert.Equal(t, 200.0, calcDiscount(p, 5000))

	//上限0は無制限
	p.MaxDiscountAmount = 0
	assert.Equal(t, 1000.0, calcDiscount(p, 5000))
}

// =====================
// checkEligibility
// =====================

func TestCheckEligibility(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("new user within 30 days", func(t *testing.T) {
		u := model.User{ID: 1, CreatedAt: now.AddDate(0, 0, -10)}
		p := model.PromoCode{Eligibility: model.EligibilityNewUsers}
		assert.NoError(t, checkEligibility(u, p, now))

		u.CreatedAt = now.AddDate(0, 0, -30)
		err := checkEligibility(u, p, now)
		he, ok := AsHTTPError(err)
		assert.True(t, ok)
		assert.Equal(t, http.StatusForbidden, he.Status)
	})

	t.Run("role gates", func(t *testing.T) {
		buyer := model.User{ID: 1, Role: model.RoleBuyer}
		seller := model.User{ID: 2, Role: model.RoleSeller}

		assert.NoError(t, checkEligibility(buyer, model.PromoCode{Eligibility: model.EligibilityBuyers}, now))
		assert.Error(t, checkEligibility(seller, model.PromoCode{Eligibility: model.EligibilityBuyers}, now))
		assert.NoError(t, checkEligibility(seller, model.PromoCode{Eligibility: model.EligibilitySellers}, now))
		assert.Error(t, checkEligibility(buyer, model.PromoCode{Eligibility: model.EligibilitySellers}, now))
	})

	t.Run("specific users list", func(t *testing.T) {
		p := model.PromoCode{Eligibility: model.EligibilitySpecificUsers, SpecificUserIDs: "3, 7,12"}
		assert.NoError(t, checkEligibility(model.User{ID: 7}, p, now))
		assert.Error(t, checkEligibility(model.User{ID: 8}, p, now))
	})

	t.Run("all", func(t *testing.T) {
		assert.NoError(t, checkEligibility(model.User{ID: 1}, model.PromoCode{Eligibility: model.EligibilityAll}, now))
	})
}

// =====================
// evaluatePromo
// =====================

func TestEvaluatePromoChain(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	user := model.User{ID: 10, Role: model.RoleBuyer, CreatedAt: now.AddDate(-1, 0, 0)}

	base := model.PromoCode{
		ID:            5,
		Code:          "SAVE10",
		DiscountType:  model.DiscountFlat,
		DiscountValue: 100,
		ExpiryDate:    now.AddDate(0, 1, 0),
		Eligibility:   model.EligibilityAll,
		IsActive:      true,
	}

	newRepos := func() (*promoRepoMock, *referralRepoMock) {
		promos := new(promoRepoMock)
		referrals := new(referralRepoMock)
		//非紹介コードが既定
		referrals.On("FindRewardByPromoCode", ctx, base.ID).Return(model.ReferralReward{}, repo.ErrNotFound)
		return promos, referrals
	}

	t.Run("happy path", func(t *testing.T) {
		promos, referrals := newRepos()
		discount, err := evaluatePromo(ctx, promos, referrals, user, base, 1000, now)
		assert.NoError(t, err)
		assert.Equal(t, 100.0, discount)
	})

	t.Run("inactive short-circuits before expiry", func(t *testing.T) {
		promos, referrals := newRepos()
		p := base
		p.IsActive = false
		p.ExpiryDate = now.AddDate(0, 0, -1)
		_, err := evaluatePromo(ctx, promos, referrals, user, p, 1000, now)
		he, _ := AsHTTPError(err)
		assert.Equal(t, "promo code is inactive", he.Message)
	})

	t.Run("expired", func(t *testing.T) {
		promos, referrals := newRepos()
		p := base
		p.ExpiryDate = now.AddDate(0, 0, -1)
		_, err := evaluatePromo(ctx, promos, referrals, user, p, 1000, now)
		he, _ := AsHTTPError(err)
		assert.Equal(t, "promo code has expired", he.Message)
	})

	t.Run("usage limit reached", func(t *testing.T) {
		promos, referrals := newRepos()
		p := base
		p.MaxUsageCount = 50
		p.UsageCount = 50
		_, err := evaluatePromo(ctx, promos, referrals, user, p, 1000, now)
		he, _ := AsHTTPError(err)
		assert.Equal(t, "promo code usage limit reached", he.Message)
	})

	t.Run("below minimum order amount", func(t *testing.T) {
		promos, referrals := newRepos()
		p := base
		p.MinOrderAmount = 2000
		_, err := evaluatePromo(ctx, promos, referrals, user, p, 1000, now)
		he, _ := AsHTTPError(err)
		assert.Equal(t, http.StatusBadRequest, he.Status)
	})

	t.Run("referral reward requires completed referrals", func(t *testing.T) {
		promos := new(promoRepoMock)
		referrals := new(referralRepoMock)
		referrals.On("FindRewardByPromoCode", ctx, base.ID).
			Return(model.ReferralReward{PromoCodeID: base.ID, RequiredReferrals: 3}, nil)
		referrals.On("CountCompletedByReferrer", ctx, user.ID).Return(int64(2), nil)

		_, err := evaluatePromo(ctx, promos, referrals, user, base, 1000, now)
		he, _ := AsHTTPError(err)
		assert.Equal(t, http.StatusForbidden, he.Status)
	})

	t.Run("referral reward is single use", func(t *testing.T) {
		promos := new(promoRepoMock)
		referrals := new(referralRepoMock)
		referrals.On("FindRewardByPromoCode", ctx, base.ID).
			Return(model.ReferralReward{PromoCodeID: base.ID, RequiredReferrals: 3}, nil)
		referrals.On("CountCompletedByReferrer", ctx, user.ID).Return(int64(3), nil)
		promos.On("HasClaim", ctx, user.ID, base.ID).Return(true, nil)

		_, err := evaluatePromo(ctx, promos, referrals, user, base, 1000, now)
		he, _ := AsHTTPError(err)
		assert.Equal(t, "promo code already used", he.Message)
	})

	t.Run("referral reward claimable", func(t *testing.T) {
		promos := new(promoRepoMock)
		referrals := new(referralRepoMock)
		referrals.On("FindRewardByPromoCode", ctx, base.ID).
			Return(model.ReferralReward{PromoCodeID: base.ID, RequiredReferrals: 3}, nil)
		referrals.On("CountCompletedByReferrer", ctx, user.ID).Return(int64(5), nil)
		promos.On("HasClaim", ctx, user.ID, base.ID).Return(false, nil)

		discount, err := evaluatePromo(ctx, promos, referrals, user, base, 1000, now)
		assert.NoError(t, err)
		assert.Equal(t, 100.0, discount)
	})
}
