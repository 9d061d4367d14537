package repository

import (
	"context"
	"errors"
	"time"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"

	"gorm.io/gorm"
)

type CartGormRepository struct {
	db *gorm.DB
}

func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

func (r *CartGormRepository) ListByBuyer(ctx context.Context, buyerID int64, now time.Time) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Where("expires_at > ?", now).
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return []model.CartItem{}, err
	}
	return items, nil
}

func (r *CartGormRepository) FindByBuyerAndProduct(ctx context.Context, buyerID, productID int64, now time.Time) (model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		Where("expires_at > ?", now).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CartItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

func (r *CartGormRepository) Create(ctx context.Context, item *model.CartItem) error {
	err := r.db.WithContext(ctx).Create(item).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return repo.ErrConflict
	}
	return err
}

func (r *CartGormRepository) Update(ctx context.Context, item *model.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *CartGormRepository) Delete(ctx context.Context, buyerID, productID int64) error {
	res := r.db.WithContext(ctx).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		Delete(&model.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CartGormRepository) DeleteAllByBuyer(ctx context.Context, buyerID int64) error {
	return r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Delete(&model.CartItem{}).Error
}
