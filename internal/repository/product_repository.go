package repository

import (
	"context"

	"rentalapp/internal/domain/model"
)

type ProductListFilter struct {
	Page     int
	Limit    int
	Category string
	Size     string
	MinPrice *float64
	MaxPrice *float64

	//空なら公開側デフォルト（visible + available）
	Availability string

	//管理画面はモデレーション状態を問わず見る
	IncludeHidden bool
	SellerID      *int64
}

type ProductRepository interface {
	FindByID(ctx context.Context, productID int64) (model.Product, error)
	List(ctx context.Context, f ProductListFilter) ([]model.Product, int64, error)
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, productID int64) error

	UpdateVisibility(ctx context.Context, productID int64, v model.Visibility) error
	UpdateAvailability(ctx context.Context, productID int64, s model.AvailabilityStatus) error

	//手数料率（=保証金率）の更新。0〜100はusecaseで守る。
	UpdateCommission(ctx context.Context, productID int64, commission float64) error

	AddImage(ctx context.Context, img *model.ProductImage) error
	CountImages(ctx context.Context, productID int64) (int64, error)
	CountAvailable(ctx context.Context) (int64, error)
}
