package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rentalapp/internal/domain/model"
	"rentalapp/internal/infra/storage"
	repo "rentalapp/internal/repository"
)

const (
	kycBucket         = "kyc-documents"
	maxKYCFileBytes   = 10 * 1024 * 1024
	kycPresignTTL     = 15 * time.Minute
	kycDownloadTTL    = 5 * time.Minute
	maxDocsPerRequest = 8
)

var allowedKYCMIMEs = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

var validKYCDocTypes = map[model.KYCDocumentType]bool{
	model.KYCDocIdentityProof:  true,
	model.KYCDocAddressProof:   true,
	model.KYCDocBankStatement:  true,
	model.KYCDocPanCard:        true,
	model.KYCDocAadharCard:     true,
	model.KYCDocPassport:       true,
	model.KYCDocDrivingLicense: true,
	model.KYCDocUtilityBill:    true,
}

type KYCUsecase struct {
	tx      repo.TransactionManager
	kyc     repo.KYCRepository
	users   repo.UserRepository
	storage storage.Service
}

func NewKYCUsecase(
	tx repo.TransactionManager,
	kyc repo.KYCRepository,
	users repo.UserRepository,
	st storage.Service,
) *KYCUsecase {
	return &KYCUsecase{tx: tx, kyc: kyc, users: users, storage: st}
}

type KYCUploadRequest struct {
	DocumentType string `json:"document_type"`
	DocumentName string `json:"document_name"`
	MimeType     string `json:"mime_type"`
	FileSize     int64  `json:"file_size"`
}

type KYCUploadOutput struct {
	DocumentID int64  `json:"document_id"`
	UploadURL  string `json:"upload_url"`
	FileKey    string `json:"file_key"`
}

// 書類アップロードの開始。presigned URLとpending状態のレコードを払い出す。
func (u *KYCUsecase) RequestDocumentUpload(ctx context.Context, userID int64, in KYCUploadRequest) (KYCUploadOutput, error) {
	if userID <= 0 {
		return KYCUploadOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	docType := model.KYCDocumentType(in.DocumentType)
	if !validKYCDocTypes[docType] {
		return KYCUploadOutput{}, NewHTTPError(http.StatusBadRequest, "invalid document_type")
	}
	name := strings.TrimSpace(in.DocumentName)
	if name == "" {
		return KYCUploadOutput{}, NewHTTPError(http.StatusBadRequest, "document_name is required")
	}
	if !allowedKYCMIMEs[in.MimeType] {
		return KYCUploadOutput{}, NewHTTPError(http.StatusBadRequest, "unsupported file type")
	}
	if in.FileSize <= 0 || in.FileSize > maxKYCFileBytes {
		return KYCUploadOutput{}, NewHTTPError(http.StatusBadRequest, "file size must be between 1 byte and 10MB")
	}

	key := fmt.Sprintf("%d/%s/%d-%s", userID, docType, time.Now().Unix(), sanitizeFileName(name))
	uploadURL, err := u.storage.PresignUpload(ctx, kycBucket, key, in.MimeType, kycPresignTTL)
	if err != nil {
		return KYCUploadOutput{}, NewHTTPError(http.StatusBadGateway, "storage error")
	}

	doc := model.KYCDocument{
		UserID:       userID,
		DocumentType: docType,
		DocumentName: name,
		FilePath:     key,
		MimeType:     in.MimeType,
		UploadStatus: model.UploadStatusPending,
		IsCurrent:    true,
	}
	if err := u.kyc.CreateDocument(ctx, &doc); err != nil {
		return KYCUploadOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return KYCUploadOutput{DocumentID: doc.ID, UploadURL: uploadURL, FileKey: key}, nil
}

// クライアントのアップロード完了後、ストレージ上の実体を確認して確定する。
func (u *KYCUsecase) ConfirmDocumentUpload(ctx context.Context, userID, docID int64) (model.KYCDocument, error) {
	doc, err := u.findOwnedDocument(ctx, userID, docID)
	if err != nil {
		return model.KYCDocument{}, err
	}
	if doc.UploadStatus == model.UploadStatusUploaded {
		return doc, nil
	}

	size, exists, err := u.storage.Stat(ctx, kycBucket, doc.FilePath)
	if err != nil {
		return model.KYCDocument{}, NewHTTPError(http.StatusBadGateway, "storage error")
	}
	if !exists {
		return model.KYCDocument{}, NewHTTPError(http.StatusBadRequest, "file not uploaded")
	}
	if size > maxKYCFileBytes {
		return model.KYCDocument{}, NewHTTPError(http.StatusBadRequest, "file too large")
	}

	fields := map[string]interface{}{
		"upload_status": model.UploadStatusUploaded,
		"file_size":     size,
	}
	if err := u.kyc.UpdateDocumentFields(ctx, doc.ID, fields); err != nil {
		return model.KYCDocument{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	doc.UploadStatus = model.UploadStatusUploaded
	doc.FileSize = size
	return doc, nil
}

type SubmitVerificationInput struct {
	DocumentIDs []int64 `json:"document_ids"`
}

// 審査の提出。アップロード済みの自分の書類だけをまとめられる。
func (u *KYCUsecase) SubmitVerification(ctx context.Context, userID int64, in SubmitVerificationInput) (model.KYCVerification, error) {
	if userID <= 0 {
		return model.KYCVerification{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(in.DocumentIDs) == 0 || len(in.DocumentIDs) > maxDocsPerRequest {
		return model.KYCVerification{}, NewHTTPError(http.StatusBadRequest, "document_ids must contain between 1 and 8 items")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return model.KYCVerification{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if user.KYCStatus == model.KYCStatusPending {
		return model.KYCVerification{}, NewHTTPError(http.StatusConflict, "verification already in progress")
	}
	if user.KYCStatus == model.KYCStatusVerified {
		return model.KYCVerification{}, NewHTTPError(http.StatusConflict, "already verified")
	}

	docs, err := u.kyc.ListDocumentsByIDs(ctx, userID, in.DocumentIDs)
	if err != nil {
		return model.KYCVerification{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(docs) != len(in.DocumentIDs) {
		return model.KYCVerification{}, NewHTTPError(http.StatusBadRequest, "unknown document in document_ids")
	}
	for _, d := range docs {
		if d.UploadStatus != model.UploadStatusUploaded {
			return model.KYCVerification{}, NewHTTPError(http.StatusBadRequest, "all documents must be uploaded first")
		}
	}

	reqType := model.KYCRequestInitial
	if user.CurrentKYCVerificationID != nil {
		reqType = model.KYCRequestResubmission
	}

	ids := make([]string, 0, len(in.DocumentIDs))
	for _, id := range in.DocumentIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}

	now := time.Now()
	v := model.KYCVerification{
		UserID:      userID,
		RequestType: reqType,
		Status:      model.KYCVerificationSubmitted,
		DocumentIDs: strings.Join(ids, ","),
		SubmittedAt: &now,
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.KYC().CreateVerification(ctx, &v); err != nil {
			return err
		}
		return r.Users().UpdateFields(ctx, userID, map[string]interface{}{
			"kyc_status":                  model.KYCStatusPending,
			"current_kyc_verification_id": v.ID,
		})
	})
	if err != nil {
		return model.KYCVerification{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return v, nil
}

type KYCStatusOutput struct {
	KYCStatus    model.KYCStatus        `json:"kyc_status"`
	Verification *model.KYCVerification `json:"verification,omitempty"`
	Documents    []model.KYCDocument    `json:"documents"`
}

func (u *KYCUsecase) GetMyKYC(ctx context.Context, userID int64) (KYCStatusOutput, error) {
	if userID <= 0 {
		return KYCStatusOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return KYCStatusOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	out := KYCStatusOutput{KYCStatus: user.KYCStatus}

	if user.CurrentKYCVerificationID != nil {
		v, err := u.kyc.FindVerificationByID(ctx, *user.CurrentKYCVerificationID)
		if err == nil {
			out.Verification = &v
		}
	}

	docs, err := u.kyc.ListCurrentDocuments(ctx, userID)
	if err != nil {
		return KYCStatusOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	out.Documents = docs
	return out, nil
}

// 審査担当が書類を閲覧するための一時URL
func (u *KYCUsecase) GetDocumentURL(ctx context.Context, docID int64) (string, error) {
	doc, err := u.kyc.FindDocumentByID(ctx, docID)
	if errors.Is(err, repo.ErrNotFound) {
		return "", NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return "", NewHTTPError(http.StatusInternalServerError, "db error")
	}
	signed, err := u.storage.PresignDownload(ctx, kycBucket, doc.FilePath, kycDownloadTTL)
	if err != nil {
		return "", NewHTTPError(http.StatusBadGateway, "storage error")
	}
	return signed, nil
}

func (u *KYCUsecase) ListPendingVerifications(ctx context.Context, page, limit int) ([]model.KYCVerification, error) {
	page, limit = normalizePage(page, limit)
	items, err := u.kyc.ListPendingVerifications(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

type ReviewVerificationInput struct {
	Approve         bool   `json:"approve"`
	RejectionReason string `json:"rejection_reason"`
	AdminNotes      string `json:"admin_notes"`
}

// 審査の承認・却下。結果はユーザーのkyc_statusにも反映する。
func (u *KYCUsecase) ReviewVerification(ctx context.Context, adminID, verificationID int64, in ReviewVerificationInput) (model.KYCVerification, error) {
	v, err := u.kyc.FindVerificationByID(ctx, verificationID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.KYCVerification{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.KYCVerification{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if v.Status != model.KYCVerificationSubmitted && v.Status != model.KYCVerificationUnderReview {
		return model.KYCVerification{}, NewHTTPError(http.StatusConflict, "verification is not awaiting review")
	}
	if !in.Approve && strings.TrimSpace(in.RejectionReason) == "" {
		return model.KYCVerification{}, NewHTTPError(http.StatusBadRequest, "rejection_reason is required")
	}

	now := time.Now()
	vFields := map[string]interface{}{
		"reviewed_at": now,
		"reviewed_by": adminID,
		"admin_notes": strings.TrimSpace(in.AdminNotes),
	}

	var userStatus model.KYCStatus
	var event string
	placeholders := map[string]string{}

	if in.Approve {
		vFields["status"] = model.KYCVerificationApproved
		userStatus = model.KYCStatusVerified
		event = model.EventKYCApproved
	} else {
		vFields["status"] = model.KYCVerificationRejected
		vFields["rejection_reason"] = strings.TrimSpace(in.RejectionReason)
		userStatus = model.KYCStatusNone
		event = model.EventKYCRejected
		placeholders["reason"] = strings.TrimSpace(in.RejectionReason)
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.KYC().UpdateVerificationFields(ctx, verificationID, vFields); err != nil {
			return err
		}
		if err := r.Users().UpdateFields(ctx, v.UserID, map[string]interface{}{
			"kyc_status": userStatus,
		}); err != nil {
			return err
		}
		n := model.Notification{
			UserID:           v.UserID,
			EventType:        event,
			PlaceholdersJSON: mustPlaceholders(placeholders),
			Status:           model.NotificationPending,
		}
		return r.Notifications().Create(ctx, &n)
	})
	if err != nil {
		return model.KYCVerification{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.kyc.FindVerificationByID(ctx, verificationID)
}

func (u *KYCUsecase) findOwnedDocument(ctx context.Context, userID, docID int64) (model.KYCDocument, error) {
	if userID <= 0 {
		return model.KYCDocument{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	doc, err := u.kyc.FindDocumentByID(ctx, docID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.KYCDocument{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.KYCDocument{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if doc.UserID != userID {
		return model.KYCDocument{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return doc, nil
}

// ファイルキーに使えない文字を落とす
func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
