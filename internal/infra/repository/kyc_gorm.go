package repository

import (
	"context"
	"errors"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"

	"gorm.io/gorm"
)

type KYCGormRepository struct {
	db *gorm.DB
}

func NewKYCGormRepository(db *gorm.DB) *KYCGormRepository {
	return &KYCGormRepository{db: db}
}

func (r *KYCGormRepository) CreateDocument(ctx context.Context, d *model.KYCDocument) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *KYCGormRepository) FindDocumentByID(ctx context.Context, docID int64) (model.KYCDocument, error) {
	var d model.KYCDocument
	err := r.db.WithContext(ctx).Where("id = ?", docID).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.KYCDocument{}, repo.ErrNotFound
	}
	if err != nil {
		return model.KYCDocument{}, err
	}
	return d, nil
}

func (r *KYCGormRepository) FindDocumentByFileKey(ctx context.Context, userID int64, fileKey string) (model.KYCDocument, error) {
	var d model.KYCDocument
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND file_path = ?", userID, fileKey).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.KYCDocument{}, repo.ErrNotFound
	}
	if err != nil {
		return model.KYCDocument{}, err
	}
	return d, nil
}

func (r *KYCGormRepository) ListDocumentsByIDs(ctx context.Context, userID int64, ids []int64) ([]model.KYCDocument, error) {
	var docs []model.KYCDocument
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&docs).Error
	if err != nil {
		return []model.KYCDocument{}, err
	}
	return docs, nil
}

func (r *KYCGormRepository) ListCurrentDocuments(ctx context.Context, userID int64) ([]model.KYCDocument, error) {
	var docs []model.KYCDocument
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_current = ? AND upload_status <> ?", userID, true, model.UploadStatusDeleted).
		Order("created_at desc").
		Find(&docs).Error
	if err != nil {
		return []model.KYCDocument{}, err
	}
	return docs, nil
}

func (r *KYCGormRepository) UpdateDocumentFields(ctx context.Context, docID int64, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.KYCDocument{}).
		Where("id = ?", docID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *KYCGormRepository) CreateVerification(ctx context.Context, v *model.KYCVerification) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *KYCGormRepository) FindVerificationByID(ctx context.Context, verificationID int64) (model.KYCVerification, error) {
	var v model.KYCVerification
	err := r.db.WithContext(ctx).Where("id = ?", verificationID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.KYCVerification{}, repo.ErrNotFound
	}
	if err != nil {
		return model.KYCVerification{}, err
	}
	return v, nil
}

func (r *KYCGormRepository) ListPendingVerifications(ctx context.Context, limit, offset int) ([]model.KYCVerification, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []model.KYCVerification
	err := r.db.WithContext(ctx).
		Where("status = ?", model.KYCVerificationSubmitted).
		Order("submitted_at asc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.KYCVerification{}, err
	}
	return items, nil
}

func (r *KYCGormRepository) UpdateVerificationFields(ctx context.Context, verificationID int64, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.KYCVerification{}).
		Where("id = ?", verificationID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
