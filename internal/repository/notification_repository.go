package repository

import (
	"context"
	"time"

	"rentalapp/internal/domain/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	//pendingの古い順にbatch件
	ListPending(ctx context.Context, batch int) ([]model.Notification, error)
	MarkSent(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	ListByUser(ctx context.Context, userID int64, page, limit int) ([]model.Notification, int64, error)
}
