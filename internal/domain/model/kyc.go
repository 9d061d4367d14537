package model

import "time"

type KYCDocumentType string

const (
	KYCDocIdentityProof  KYCDocumentType = "identity_proof"
	KYCDocAddressProof   KYCDocumentType = "address_proof"
	KYCDocBankStatement  KYCDocumentType = "bank_statement"
	KYCDocPanCard        KYCDocumentType = "pan_card"
	KYCDocAadharCard     KYCDocumentType = "aadhar_card"
	KYCDocPassport       KYCDocumentType = "passport"
	KYCDocDrivingLicense KYCDocumentType = "driving_license"
	KYCDocUtilityBill    KYCDocumentType = "utility_bill"
)

type UploadStatus string

const (
	UploadStatusPending  UploadStatus = "pending"
	UploadStatusUploaded UploadStatus = "uploaded"
	UploadStatusFailed   UploadStatus = "failed"
	UploadStatusDeleted  UploadStatus = "deleted"
)

type KYCDocument struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64           `gorm:"not null;index" json:"user_id"`
	DocumentType KYCDocumentType `gorm:"type:varchar(30);not null" json:"document_type"`
	DocumentName string          `gorm:"type:varchar(255);not null" json:"document_name"`

	//ストレージ上のキー {userID}/{documentType}/{timestamp}-{name}
	FilePath string `gorm:"type:varchar(512);not null;index" json:"file_path"`
	FileSize int64  `gorm:"not null;default:0" json:"file_size"`
	MimeType string `gorm:"type:varchar(100)" json:"mime_type"`

	UploadStatus UploadStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"upload_status"`
	IsCurrent    bool         `gorm:"not null;default:true" json:"is_current"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type KYCVerificationStatus string

const (
	KYCVerificationDraft       KYCVerificationStatus = "draft"
	KYCVerificationSubmitted   KYCVerificationStatus = "submitted"
	KYCVerificationUnderReview KYCVerificationStatus = "under_review"
	KYCVerificationApproved    KYCVerificationStatus = "approved"
	KYCVerificationRejected    KYCVerificationStatus = "rejected"
	KYCVerificationExpired     KYCVerificationStatus = "expired"
)

type KYCRequestType string

const (
	KYCRequestInitial      KYCRequestType = "initial"
	KYCRequestResubmission KYCRequestType = "resubmission"
	KYCRequestUpdate       KYCRequestType = "update"
)

type KYCVerification struct {
	ID          int64                 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64                 `gorm:"not null;index" json:"user_id"`
	RequestType KYCRequestType        `gorm:"type:varchar(20);not null;default:'initial'" json:"request_type"`
	Status      KYCVerificationStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//対象ドキュメントID（カンマ区切り）
	DocumentIDs string `gorm:"type:text" json:"document_ids"`

	SubmittedAt     *time.Time `gorm:"index" json:"submitted_at"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	ReviewedBy      *int64     `json:"reviewed_by"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`
	AdminNotes      string     `gorm:"type:text" json:"admin_notes"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
