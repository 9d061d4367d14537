package usecase

import (
	"context"
	"errors"
	"net/http"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"
)

type WishlistUsecase struct {
	wishlists repo.WishlistRepository
	products  repo.ProductRepository
}

func NewWishlistUsecase(wishlists repo.WishlistRepository, products repo.ProductRepository) *WishlistUsecase {
	return &WishlistUsecase{wishlists: wishlists, products: products}
}

type WishlistLineOutput struct {
	Item    model.WishlistItem `json:"item"`
	Product model.Product      `json:"product"`
}

func (u *WishlistUsecase) ListWishlist(ctx context.Context, buyerID int64) ([]WishlistLineOutput, error) {
	if buyerID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := u.wishlists.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := make([]WishlistLineOutput, 0, len(items))
	for _, item := range items {
		p, err := u.products.FindByID(ctx, item.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = append(out, WishlistLineOutput{Item: item, Product: p})
	}
	return out, nil
}

// 追加は冪等。既にあれば何もしない。
func (u *WishlistUsecase) AddToWishlist(ctx context.Context, buyerID, productID int64) error {
	if buyerID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if p.Visibility != model.VisibilityVisible {
		return NewHTTPError(http.StatusNotFound, "product not found")
	}

	exists, err := u.wishlists.Exists(ctx, buyerID, productID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if exists {
		return nil
	}

	item := model.WishlistItem{BuyerID: buyerID, ProductID: productID}
	if err := u.wishlists.Create(ctx, &item); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *WishlistUsecase) RemoveFromWishlist(ctx context.Context, buyerID, productID int64) error {
	if buyerID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	err := u.wishlists.Delete(ctx, buyerID, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
