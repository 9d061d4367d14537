package repository

import (
	"context"
	"time"

	"rentalapp/internal/domain/model"
)

type RefreshTokenRepository interface {
	Create(ctx context.Context, t *model.RefreshToken) error
	FindByHash(ctx context.Context, hash string) (model.RefreshToken, error)
	MarkUsed(ctx context.Context, id string, at time.Time) error
	Revoke(ctx context.Context, id string, at time.Time) error
	RevokeAllByUser(ctx context.Context, userID int64, at time.Time) error
}
