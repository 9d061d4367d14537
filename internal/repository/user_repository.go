package repository

import (
	"context"

	"rentalapp/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByReferralCode(ctx context.Context, code string) (model.User, error)
	Update(ctx context.Context, user *model.User) error

	//KYC審査結果などの部分更新
	UpdateFields(ctx context.Context, userID int64, fields map[string]interface{}) error
	IncrementTokenVersion(ctx context.Context, userID int64) error

	//管理画面のユーザー一覧（buyer/seller）
	ListByRoles(ctx context.Context, roles []model.Role) ([]model.User, error)
	CountByRole(ctx context.Context, role model.Role) (int64, error)
}
