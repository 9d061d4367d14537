package repository

import (
	"context"

	"rentalapp/internal/domain/model"
)

type KYCRepository interface {
	CreateDocument(ctx context.Context, d *model.KYCDocument) error
	FindDocumentByID(ctx context.Context, docID int64) (model.KYCDocument, error)
	FindDocumentByFileKey(ctx context.Context, userID int64, fileKey string) (model.KYCDocument, error)
	ListDocumentsByIDs(ctx context.Context, userID int64, ids []int64) ([]model.KYCDocument, error)
	ListCurrentDocuments(ctx context.Context, userID int64) ([]model.KYCDocument, error)
	UpdateDocumentFields(ctx context.Context, docID int64, fields map[string]interface{}) error

	CreateVerification(ctx context.Context, v *model.KYCVerification) error
	FindVerificationByID(ctx context.Context, verificationID int64) (model.KYCVerification, error)
	//submitted_atの古い順
	ListPendingVerifications(ctx context.Context, limit, offset int) ([]model.KYCVerification, error)
	UpdateVerificationFields(ctx context.Context, verificationID int64, fields map[string]interface{}) error
}
