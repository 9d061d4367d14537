package repository

import (
	"context"
	"errors"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"

	"gorm.io/gorm"
)

type PromoGormRepository struct {
	db *gorm.DB
}

func NewPromoGormRepository(db *gorm.DB) *PromoGormRepository {
	return &PromoGormRepository{db: db}
}

func (r *PromoGormRepository) FindByID(ctx context.Context, promoID int64) (model.PromoCode, error) {
	var p model.PromoCode
	err := r.db.WithContext(ctx).Where("id = ?", promoID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PromoCode{}, repo.ErrNotFound
	}
	if err != nil {
		return model.PromoCode{}, err
	}
	return p, nil
}

func (r *PromoGormRepository) FindActiveByCode(ctx context.Context, code string) (model.PromoCode, error) {
	var p model.PromoCode
	err := r.db.WithContext(ctx).
		Where("code = ? AND is_active = ?", code, true).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PromoCode{}, repo.ErrNotFound
	}
	if err != nil {
		return model.PromoCode{}, err
	}
	return p, nil
}

func (r *PromoGormRepository) Create(ctx context.Context, p *model.PromoCode) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return repo.ErrConflict
	}
	return err
}

func (r *PromoGormRepository) Update(ctx context.Context, p *model.PromoCode) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *PromoGormRepository) List(ctx context.Context) ([]model.PromoCode, error) {
	var items []model.PromoCode
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&items).Error
	if err != nil {
		return []model.PromoCode{}, err
	}
	return items, nil
}

func (r *PromoGormRepository) IncrementUsage(ctx context.Context, promoID int64) error {
	res := r.db.WithContext(ctx).Model(&model.PromoCode{}).
		Where("id = ?", promoID).
		Update("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *PromoGormRepository) HasClaim(ctx context.Context, userID, promoID int64) (bool, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.PromoCodeClaim{}).
		Where("user_id = ? AND promo_code_id = ?", userID, promoID).
		Count(&total).Error
	return total > 0, err
}

func (r *PromoGormRepository) CreateClaim(ctx context.Context, claim *model.PromoCodeClaim) error {
	err := r.db.WithContext(ctx).Create(claim).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return repo.ErrConflict
	}
	return err
}
