package repository

import (
	"context"

	"rentalapp/internal/domain/model"
)

type WishlistRepository interface {
	ListByBuyer(ctx context.Context, buyerID int64) ([]model.WishlistItem, error)
	Exists(ctx context.Context, buyerID, productID int64) (bool, error)
	Create(ctx context.Context, item *model.WishlistItem) error
	Delete(ctx context.Context, buyerID, productID int64) error
}
