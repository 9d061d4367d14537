package repository

import (
	"context"

	"rentalapp/internal/domain/model"
)

type ReviewRepository interface {
	FindByID(ctx context.Context, reviewID int64) (model.Review, error)
	FindByOrder(ctx context.Context, buyerID, productID, orderID int64) (model.Review, error)
	ListByProduct(ctx context.Context, productID int64, page, limit int) ([]model.Review, int64, error)
	AverageRating(ctx context.Context, productID int64) (float64, error)
	Create(ctx context.Context, r *model.Review) error
	Update(ctx context.Context, r *model.Review) error
	Delete(ctx context.Context, reviewID int64) error
}
