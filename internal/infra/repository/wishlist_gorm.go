package repository

import (
	"context"
	"errors"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"

	"gorm.io/gorm"
)

type WishlistGormRepository struct {
	db *gorm.DB
}

func NewWishlistGormRepository(db *gorm.DB) *WishlistGormRepository {
	return &WishlistGormRepository{db: db}
}

func (r *WishlistGormRepository) ListByBuyer(ctx context.Context, buyerID int64) ([]model.WishlistItem, error) {
	var items []model.WishlistItem
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return []model.WishlistItem{}, err
	}
	return items, nil
}

func (r *WishlistGormRepository) Exists(ctx context.Context, buyerID, productID int64) (bool, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.WishlistItem{}).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		Count(&total).Error
	return total > 0, err
}

func (r *WishlistGormRepository) Create(ctx context.Context, item *model.WishlistItem) error {
	err := r.db.WithContext(ctx).Create(item).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return repo.ErrConflict
	}
	return err
}

func (r *WishlistGormRepository) Delete(ctx context.Context, buyerID, productID int64) error {
	res := r.db.WithContext(ctx).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		Delete(&model.WishlistItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
