package repository

import (
	"context"

	"rentalapp/internal/domain/model"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	FindByID(ctx context.Context, paymentID int64) (model.Payment, error)
	//出金申請に限定した更新。0行ならErrNotFound。
	UpdateWithdrawalStatus(ctx context.Context, paymentID int64, status model.PaymentStatus) error
	ListByUser(ctx context.Context, userID int64) ([]model.Payment, error)
}
