package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"rentalapp/internal/domain/model"
	"rentalapp/internal/infra/storage"
	repo "rentalapp/internal/repository"

	"github.com/google/uuid"
)

const (
	productImageBucket = "product-images"
	maxProductImages   = 10
	maxImageSizeBytes  = 5 * 1024 * 1024
	presignTTL         = 15 * time.Minute
)

// 許可する画像MIME
var allowedImageMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type ProductUsecase struct {
	products repo.ProductRepository
	orders   repo.OrderRepository
	reviews  repo.ReviewRepository
	users    repo.UserRepository
	storage  storage.Service
	tx       repo.TransactionManager
}

func NewProductUsecase(
	products repo.ProductRepository,
	orders repo.OrderRepository,
	reviews repo.ReviewRepository,
	users repo.UserRepository,
	st storage.Service,
	tx repo.TransactionManager,
) *ProductUsecase {
	return &ProductUsecase{
		products: products,
		orders:   orders,
		reviews:  reviews,
		users:    users,
		storage:  st,
		tx:       tx,
	}
}

type ListProductsInput struct {
	Page     int
	Limit    int
	Category string
	Size     string
	MinPrice *float64
	MaxPrice *float64
}

type ProductListOutput struct {
	Items      []model.Product `json:"items"`
	Pagination Pagination      `json:"pagination"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.MinPrice != nil && *in.MinPrice < 0 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && *in.MaxPrice < 0 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}

	page, limit := normalizePage(in.Page, in.Limit)
	items, total, err := u.products.List(ctx, repo.ProductListFilter{
		Page:     page,
		Limit:    limit,
		Category: strings.TrimSpace(in.Category),
		Size:     strings.TrimSpace(in.Size),
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{
		Items:      items,
		Pagination: newPagination(page, limit, total),
	}, nil
}

type ProductDetailOutput struct {
	Product       model.Product     `json:"product"`
	Seller        model.UserSummary `json:"seller"`
	AverageRating float64           `json:"average_rating"`
	ImageURLs     []string          `json:"image_urls"`
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (ProductDetailOutput, error) {
	if productID <= 0 {
		return ProductDetailOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductDetailOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//モデレーションで非表示の商品は公開側に出さない
	if p.Visibility != model.VisibilityVisible {
		return ProductDetailOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	seller, err := u.users.FindByID(ctx, p.SellerID)
	if err != nil {
		return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	avg, err := u.reviews.AverageRating(ctx, productID)
	if err != nil {
		return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//画像はダウンロード用presigned URLに展開して返す
	urls := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		signed, err := u.storage.PresignDownload(ctx, productImageBucket, img.FileKey, presignTTL)
		if err != nil {
			continue
		}
		urls = append(urls, signed)
	}

	return ProductDetailOutput{
		Product:       p,
		Seller:        seller.Summary(),
		AverageRating: avg,
		ImageURLs:     urls,
	}, nil
}

type CreateProductInput struct {
	Title                     string  `json:"title"`
	Description               string  `json:"description"`
	Category                  string  `json:"category"`
	Size                      string  `json:"size"`
	RentalPricePerDay         float64 `json:"rental_price_per_day"`
	SecurityDepositPercentage float64 `json:"security_deposit_percentage"`
}

func (u *ProductUsecase) CreateProduct(ctx context.Context, sellerID int64, in CreateProductInput) (model.Product, error) {
	if sellerID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.Title) == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if in.RentalPricePerDay <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "rental_price_per_day must be > 0")
	}
	if in.SecurityDepositPercentage < 0 || in.SecurityDepositPercentage > 100 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "security_deposit_percentage must be between 0 and 100")
	}

	//出品はKYC承認済みsellerのみ
	seller, err := u.users.FindByID(ctx, sellerID)
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if seller.KYCStatus != model.KYCStatusVerified {
		return model.Product{}, NewHTTPError(http.StatusForbidden, "kyc verification required")
	}

	p := model.Product{
		SellerID:                  sellerID,
		Title:                     strings.TrimSpace(in.Title),
		Description:               in.Description,
		Category:                  strings.TrimSpace(in.Category),
		Size:                      strings.TrimSpace(in.Size),
		RentalPricePerDay:         in.RentalPricePerDay,
		SecurityDepositPercentage: in.SecurityDepositPercentage,
		AvailabilityStatus:        model.AvailabilityAvailable,
		Visibility:                model.VisibilityVisible,
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Products().Create(ctx, &p); err != nil {
			return err
		}
		n := model.Notification{
			UserID:           sellerID,
			EventType:        model.EventProductListed,
			PlaceholdersJSON: mustPlaceholders(map[string]string{"title": p.Title}),
			Status:           model.NotificationPending,
		}
		return r.Notifications().Create(ctx, &n)
	})
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

type UpdateProductInput struct {
	Title             *string  `json:"title"`
	Description       *string  `json:"description"`
	Category          *string  `json:"category"`
	Size              *string  `json:"size"`
	RentalPricePerDay *float64 `json:"rental_price_per_day"`
	Availability      *string  `json:"availability_status"`
}

func (u *ProductUsecase) UpdateProduct(ctx context.Context, sellerID, productID int64, in UpdateProductInput) (model.Product, error) {
	p, err := u.findOwnedProduct(ctx, sellerID, productID)
	if err != nil {
		return model.Product{}, err
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return model.Product{}, NewHTTPError(http.StatusBadRequest, "title must not be empty")
		}
		p.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.Size != nil {
		p.Size = strings.TrimSpace(*in.Size)
	}
	if in.RentalPricePerDay != nil {
		if *in.RentalPricePerDay <= 0 {
			return model.Product{}, NewHTTPError(http.StatusBadRequest, "rental_price_per_day must be > 0")
		}
		p.RentalPricePerDay = *in.RentalPricePerDay
	}
	if in.Availability != nil {
		s := model.AvailabilityStatus(*in.Availability)
		switch s {
		case model.AvailabilityAvailable, model.AvailabilityUnavailable:
			p.AvailabilityStatus = s
		default:
			//bookedはシステムが設定する
			return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid availability_status")
		}
	}

	if err := u.products.Update(ctx, &p); err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

func (u *ProductUsecase) DeleteProduct(ctx context.Context, sellerID, productID int64) error {
	p, err := u.findOwnedProduct(ctx, sellerID, productID)
	if err != nil {
		return err
	}

	//進行中の注文がある商品は消せない
	blocking := []model.OrderStatus{model.OrderStatusUpcoming, model.OrderStatusOngoing, model.OrderStatusLate}
	n, err := u.orders.CountByProductAndStatuses(ctx, p.ID, blocking)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if n > 0 {
		return NewHTTPError(http.StatusConflict, "product has active orders")
	}

	if err := u.products.Delete(ctx, productID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *ProductUsecase) ListSellerProducts(ctx context.Context, sellerID int64, page, limit int) (ProductListOutput, error) {
	if sellerID <= 0 {
		return ProductListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	page, limit = normalizePage(page, limit)
	items, total, err := u.products.List(ctx, repo.ProductListFilter{
		Page:          page,
		Limit:         limit,
		SellerID:      &sellerID,
		IncludeHidden: true,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return ProductListOutput{Items: items, Pagination: newPagination(page, limit, total)}, nil
}

type ImageUploadRequest struct {
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

type ImageUploadOutput struct {
	UploadURL string `json:"upload_url"`
	FileKey   string `json:"file_key"`
}

// 画像アップロード用のpresigned URLを払い出す。本文はサーバーを通らない。
func (u *ProductUsecase) RequestImageUpload(ctx context.Context, sellerID, productID int64, in ImageUploadRequest) (ImageUploadOutput, error) {
	p, err := u.findOwnedProduct(ctx, sellerID, productID)
	if err != nil {
		return ImageUploadOutput{}, err
	}

	if !allowedImageMIMEs[in.MimeType] {
		return ImageUploadOutput{}, NewHTTPError(http.StatusBadRequest, "unsupported image type")
	}
	if in.FileSize <= 0 || in.FileSize > maxImageSizeBytes {
		return ImageUploadOutput{}, NewHTTPError(http.StatusBadRequest, "file size must be between 1 byte and 5MB")
	}

	count, err := u.products.CountImages(ctx, p.ID)
	if err != nil {
		return ImageUploadOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if count >= maxProductImages {
		return ImageUploadOutput{}, NewHTTPError(http.StatusConflict, "image limit reached")
	}

	key := fmt.Sprintf("%d/%d-%s", p.ID, time.Now().Unix(), uuid.NewString())
	uploadURL, err := u.storage.PresignUpload(ctx, productImageBucket, key, in.MimeType, presignTTL)
	if err != nil {
		return ImageUploadOutput{}, NewHTTPError(http.StatusBadGateway, "storage error")
	}
	return ImageUploadOutput{UploadURL: uploadURL, FileKey: key}, nil
}

// クライアントのアップロード完了後に存在とサイズを確認して登録する。
func (u *ProductUsecase) ConfirmImageUpload(ctx context.Context, sellerID, productID int64, fileKey string) (model.ProductImage, error) {
	p, err := u.findOwnedProduct(ctx, sellerID, productID)
	if err != nil {
		return model.ProductImage{}, err
	}
	if !strings.HasPrefix(fileKey, fmt.Sprintf("%d/", p.ID)) {
		return model.ProductImage{}, NewHTTPError(http.StatusBadRequest, "invalid file key")
	}

	size, exists, err := u.storage.Stat(ctx, productImageBucket, fileKey)
	if err != nil {
		return model.ProductImage{}, NewHTTPError(http.StatusBadGateway, "storage error")
	}
	if !exists {
		return model.ProductImage{}, NewHTTPError(http.StatusBadRequest, "file not uploaded")
	}
	if size > maxImageSizeBytes {
		return model.ProductImage{}, NewHTTPError(http.StatusBadRequest, "file too large")
	}

	count, err := u.products.CountImages(ctx, p.ID)
	if err != nil {
		return model.ProductImage{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if count >= maxProductImages {
		return model.ProductImage{}, NewHTTPError(http.StatusConflict, "image limit reached")
	}

	img := model.ProductImage{
		ProductID: p.ID,
		FileKey:   fileKey,
		Position:  int(count),
	}
	if err := u.products.AddImage(ctx, &img); err != nil {
		return model.ProductImage{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return img, nil
}

// 管理者向け一覧。非表示の商品も含める。
func (u *ProductUsecase) AdminListProducts(ctx context.Context, page, limit int) (ProductListOutput, error) {
	page, limit = normalizePage(page, limit)
	items, total, err := u.products.List(ctx, repo.ProductListFilter{
		Page:          page,
		Limit:         limit,
		IncludeHidden: true,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return ProductListOutput{Items: items, Pagination: newPagination(page, limit, total)}, nil
}

type UpdateVisibilityInput struct {
	Visibility string `json:"visibility"`
}

// モデレーション。非表示にしても既存の注文には影響しない。
func (u *ProductUsecase) AdminUpdateVisibility(ctx context.Context, productID int64, in UpdateVisibilityInput) (model.Product, error) {
	v := model.Visibility(in.Visibility)
	switch v {
	case model.VisibilityVisible, model.VisibilityHidden, model.VisibilityRejected:
	default:
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid visibility")
	}

	p, err := u.adminFindProduct(ctx, productID)
	if err != nil {
		return model.Product{}, err
	}

	if err := u.products.UpdateVisibility(ctx, productID, v); err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	p.Visibility = v
	return p, nil
}

type UpdateCommissionInput struct {
	Commission float64 `json:"commission"`
}

func (u *ProductUsecase) AdminUpdateCommission(ctx context.Context, productID int64, in UpdateCommissionInput) (model.Product, error) {
	if in.Commission < 0 || in.Commission > 100 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "commission must be between 0 and 100")
	}

	p, err := u.adminFindProduct(ctx, productID)
	if err != nil {
		return model.Product{}, err
	}

	if err := u.products.UpdateCommission(ctx, productID, in.Commission); err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	p.SecurityDepositPercentage = in.Commission
	return p, nil
}

func (u *ProductUsecase) adminFindProduct(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

func (u *ProductUsecase) findOwnedProduct(ctx context.Context, sellerID, productID int64) (model.Product, error) {
	if sellerID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//他人の商品は403
	if p.SellerID != sellerID {
		return model.Product{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return p, nil
}
