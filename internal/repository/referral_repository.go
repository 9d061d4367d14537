package repository

import (
	"context"

	"rentalapp/internal/domain/model"
)

type ReferralRepository interface {
	Create(ctx context.Context, r *model.Referral) error
	Update(ctx context.Context, r *model.Referral) error
	FindByID(ctx context.Context, referralID int64) (model.Referral, error)
	FindPendingByReferred(ctx context.Context, referredID int64) (model.Referral, error)
	ExistsByReferred(ctx context.Context, referredID int64) (bool, error)
	ListByReferrer(ctx context.Context, referrerID int64) ([]model.Referral, error)
	CountCompletedByReferrer(ctx context.Context, referrerID int64) (int64, error)

	FindRewardByPromoCode(ctx context.Context, promoCodeID int64) (model.ReferralReward, error)
	CreateReward(ctx context.Context, rw *model.ReferralReward) error
}
