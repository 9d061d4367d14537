package repository

import (
	"context"
	"errors"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"

	"gorm.io/gorm"
)

type ReferralGormRepository struct {
	db *gorm.DB
}

func NewReferralGormRepository(db *gorm.DB) *ReferralGormRepository {
	return &ReferralGormRepository{db: db}
}

func (r *ReferralGormRepository) Create(ctx context.Context, ref *model.Referral) error {
	return r.db.WithContext(ctx).Create(ref).Error
}

func (r *ReferralGormRepository) Update(ctx context.Context, ref *model.Referral) error {
	return r.db.WithContext(ctx).Save(ref).Error
}

func (r *ReferralGormRepository) FindByID(ctx context.Context, referralID int64) (model.Referral, error) {
	var ref model.Referral
	err := r.db.WithContext(ctx).Where("id = ?", referralID).First(&ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Referral{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Referral{}, err
	}
	return ref, nil
}

func (r *ReferralGormRepository) FindPendingByReferred(ctx context.Context, referredID int64) (model.Referral, error) {
	var ref model.Referral
	err := r.db.WithContext(ctx).
		Where("referred_id = ? AND status = ?", referredID, model.ReferralStatusPending).
		First(&ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Referral{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Referral{}, err
	}
	return ref, nil
}

func (r *ReferralGormRepository) ExistsByReferred(ctx context.Context, referredID int64) (bool, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Referral{}).
		Where("referred_id = ?", referredID).
		Count(&total).Error
	return total > 0, err
}

func (r *ReferralGormRepository) ListByReferrer(ctx context.Context, referrerID int64) ([]model.Referral, error) {
	var items []model.Referral
	err := r.db.WithContext(ctx).
		Where("referrer_id = ?", referrerID).
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return []model.Referral{}, err
	}
	return items, nil
}

func (r *ReferralGormRepository) CountCompletedByReferrer(ctx context.Context, referrerID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Referral{}).
		Where("referrer_id = ? AND status = ?", referrerID, model.ReferralStatusCompleted).
		Count(&total).Error
	return total, err
}

func (r *ReferralGormRepository) FindRewardByPromoCode(ctx context.Context, promoCodeID int64) (model.ReferralReward, error) {
	var rw model.ReferralReward
	err := r.db.WithContext(ctx).Where("promo_code_id = ?", promoCodeID).First(&rw).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ReferralReward{}, repo.ErrNotFound
	}
	if err != nil {
		return model.ReferralReward{}, err
	}
	return rw, nil
}

func (r *ReferralGormRepository) CreateReward(ctx context.Context, rw *model.ReferralReward) error {
	return r.db.WithContext(ctx).Create(rw).Error
}
