package repository

import (
	"context"
	"time"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"

	"gorm.io/gorm"
)

type NotificationGormRepository struct {
	db *gorm.DB
}

func NewNotificationGormRepository(db *gorm.DB) *NotificationGormRepository {
	return &NotificationGormRepository{db: db}
}

func (r *NotificationGormRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationGormRepository) ListPending(ctx context.Context, batch int) ([]model.Notification, error) {
	if batch <= 0 {
		batch = 20
	}
	var items []model.Notification
	err := r.db.WithContext(ctx).
		Where("status = ?", model.NotificationPending).
		Order("created_at asc").
		Limit(batch).
		Find(&items).Error
	if err != nil {
		return []model.Notification{}, err
	}
	return items, nil
}

func (r *NotificationGormRepository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   model.NotificationSent,
			"sent_at":  at,
			"attempts": gorm.Expr("attempts + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *NotificationGormRepository) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   model.NotificationFailed,
			"last_err": errMsg,
			"attempts": gorm.Expr("attempts + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *NotificationGormRepository) ListByUser(ctx context.Context, userID int64, page, limit int) ([]model.Notification, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	q := r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Notification{}, 0, err
	}

	var items []model.Notification
	offset := (page - 1) * limit
	err := q.Order("created_at desc").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		return []model.Notification{}, 0, err
	}
	return items, total, nil
}
