package repository

import (
	"context"
	"errors"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"

	"gorm.io/gorm"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

func (r *ReviewGormRepository) FindByID(ctx context.Context, reviewID int64) (model.Review, error) {
	var rv model.Review
	err := r.db.WithContext(ctx).Where("id = ?", reviewID).First(&rv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Review{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Review{}, err
	}
	return rv, nil
}

func (r *ReviewGormRepository) FindByOrder(ctx context.Context, buyerID, productID, orderID int64) (model.Review, error) {
	var rv model.Review
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND product_id = ? AND order_id = ?", buyerID, productID, orderID).
		First(&rv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Review{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Review{}, err
	}
	return rv, nil
}

func (r *ReviewGormRepository) ListByProduct(ctx context.Context, productID int64, page, limit int) ([]model.Review, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	q := r.db.WithContext(ctx).Model(&model.Review{}).Where("product_id = ?", productID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Review{}, 0, err
	}

	var items []model.Review
	offset := (page - 1) * limit
	err := q.Order("created_at desc").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		return []model.Review{}, 0, err
	}
	return items, total, nil
}

func (r *ReviewGormRepository) AverageRating(ctx context.Context, productID int64) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Select("COALESCE(AVG(rating), 0)").
		Where("product_id = ?", productID).
		Scan(&avg).Error
	return avg, err
}

func (r *ReviewGormRepository) Create(ctx context.Context, rv *model.Review) error {
	err := r.db.WithContext(ctx).Create(rv).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return repo.ErrConflict
	}
	return err
}

func (r *ReviewGormRepository) Update(ctx context.Context, rv *model.Review) error {
	return r.db.WithContext(ctx).Save(rv).Error
}

func (r *ReviewGormRepository) Delete(ctx context.Context, reviewID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Review{}, reviewID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
