package repository

import (
	"context"

	"rentalapp/internal/domain/model"
)

type PromoRepository interface {
	FindByID(ctx context.Context, promoID int64) (model.PromoCode, error)
	FindActiveByCode(ctx context.Context, code string) (model.PromoCode, error)
	Create(ctx context.Context, p *model.PromoCode) error
	Update(ctx context.Context, p *model.PromoCode) error
	List(ctx context.Context) ([]model.PromoCode, error)

	//usage_count = usage_count + 1（アトミック）
	IncrementUsage(ctx context.Context, promoID int64) error

	HasClaim(ctx context.Context, userID, promoID int64) (bool, error)
	CreateClaim(ctx context.Context, claim *model.PromoCodeClaim) error
}
