package repository

import (
	"context"
	"time"

	"rentalapp/internal/domain/model"
)

type CartRepository interface {
	//未失効のものだけ
	ListByBuyer(ctx context.Context, buyerID int64, now time.Time) ([]model.CartItem, error)
	FindByBuyerAndProduct(ctx context.Context, buyerID, productID int64, now time.Time) (model.CartItem, error)
	Create(ctx context.Context, item *model.CartItem) error
	Update(ctx context.Context, item *model.CartItem) error
	Delete(ctx context.Context, buyerID, productID int64) error
	DeleteAllByBuyer(ctx context.Context, buyerID int64) error
}
