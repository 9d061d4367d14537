package repository

import (
	"context"
	"errors"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

func (r *ProductGormRepository) FindByID(ctx context.Context, productID int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Preload("Images").Where("id = ?", productID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) List(ctx context.Context, f repo.ProductListFilter) ([]model.Product, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 10
	}

	q := r.db.WithContext(ctx).Model(&model.Product{})

	if !f.IncludeHidden {
		q = q.Where("visibility = ?", model.VisibilityVisible)
	}
	if f.SellerID != nil {
		q = q.Where("seller_id = ?", *f.SellerID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Size != "" {
		q = q.Where("size = ?", f.Size)
	}
	if f.MinPrice != nil {
		q = q.Where("rental_price_per_day >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("rental_price_per_day <= ?", *f.MaxPrice)
	}
	if f.Availability != "" {
		q = q.Where("availability_status = ?", f.Availability)
	} else if !f.IncludeHidden {
		q = q.Where("availability_status = ?", model.AvailabilityAvailable)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	var items []model.Product
	offset := (f.Page - 1) * f.Limit
	err := q.Preload("Images").Order("id desc").Limit(f.Limit).Offset(offset).Find(&items).Error
	if err != nil {
		return []model.Product{}, 0, err
	}
	return items, total, nil
}

func (r *ProductGormRepository) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProductGormRepository) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *ProductGormRepository) Delete(ctx context.Context, productID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, productID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ProductGormRepository) UpdateVisibility(ctx context.Context, productID int64, v model.Visibility) error {
	return r.updateColumn(ctx, productID, "visibility", v)
}

func (r *ProductGormRepository) UpdateAvailability(ctx context.Context, productID int64, s model.AvailabilityStatus) error {
	return r.updateColumn(ctx, productID, "availability_status", s)
}

func (r *ProductGormRepository) UpdateCommission(ctx context.Context, productID int64, commission float64) error {
	return r.updateColumn(ctx, productID, "security_deposit_percentage", commission)
}

func (r *ProductGormRepository) updateColumn(ctx context.Context, productID int64, col string, val interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Update(col, val)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ProductGormRepository) AddImage(ctx context.Context, img *model.ProductImage) error {
	return r.db.WithContext(ctx).Create(img).Error
}

func (r *ProductGormRepository) CountImages(ctx context.Context, productID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.ProductImage{}).
		Where("product_id = ?", productID).
		Count(&total).Error
	return total, err
}

func (r *ProductGormRepository) CountAvailable(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("availability_status = ? AND visibility = ?", model.AvailabilityAvailable, model.VisibilityVisible).
		Count(&total).Error
	return total, err
}
