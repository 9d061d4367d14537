package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"
)

type ReviewUsecase struct {
	reviews repo.ReviewRepository
	orders  repo.OrderRepository
}

func NewReviewUsecase(reviews repo.ReviewRepository, orders repo.OrderRepository) *ReviewUsecase {
	return &ReviewUsecase{reviews: reviews, orders: orders}
}

type CreateReviewInput struct {
	OrderID int64  `json:"order_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// レビュー投稿。completedの自分の注文に対して1件だけ。
func (u *ReviewUsecase) CreateReview(ctx context.Context, buyerID int64, in CreateReviewInput) (model.Review, error) {
	if buyerID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.OrderID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "invalid order_id")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}

	o, err := u.orders.FindByID(ctx, in.OrderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Review{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return model.Review{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if o.BuyerID != buyerID {
		return model.Review{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	if o.OrderStatus != model.OrderStatusCompleted {
		return model.Review{}, NewHTTPError(http.StatusConflict, "only completed orders can be reviewed")
	}

	if _, err := u.reviews.FindByOrder(ctx, buyerID, o.ProductID, o.ID); err == nil {
		return model.Review{}, NewHTTPError(http.StatusConflict, "review already exists for this order")
	} else if !errors.Is(err, repo.ErrNotFound) {
		return model.Review{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	rv := model.Review{
		ProductID: o.ProductID,
		BuyerID:   buyerID,
		OrderID:   o.ID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	if err := u.reviews.Create(ctx, &rv); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return model.Review{}, NewHTTPError(http.StatusConflict, "review already exists for this order")
		}
		return model.Review{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return rv, nil
}

type ReviewListOutput struct {
	Items         []model.Review `json:"items"`
	AverageRating float64        `json:"average_rating"`
	Pagination    Pagination     `json:"pagination"`
}

func (u *ReviewUsecase) ListProductReviews(ctx context.Context, productID int64, page, limit int) (ReviewListOutput, error) {
	if productID <= 0 {
		return ReviewListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	page, limit = normalizePage(page, limit)

	items, total, err := u.reviews.ListByProduct(ctx, productID, page, limit)
	if err != nil {
		return ReviewListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	avg, err := u.reviews.AverageRating(ctx, productID)
	if err != nil {
		return ReviewListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ReviewListOutput{
		Items:         items,
		AverageRating: avg,
		Pagination:    newPagination(page, limit, total),
	}, nil
}

type UpdateReviewInput struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

func (u *ReviewUsecase) UpdateReview(ctx context.Context, buyerID, reviewID int64, in UpdateReviewInput) (model.Review, error) {
	rv, err := u.findOwnedReview(ctx, buyerID, reviewID)
	if err != nil {
		return model.Review{}, err
	}

	if in.Rating != nil {
		if *in.Rating < 1 || *in.Rating > 5 {
			return model.Review{}, NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
		}
		rv.Rating = *in.Rating
	}
	if in.Comment != nil {
		rv.Comment = strings.TrimSpace(*in.Comment)
	}

	if err := u.reviews.Update(ctx, &rv); err != nil {
		return model.Review{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return rv, nil
}

func (u *ReviewUsecase) DeleteReview(ctx context.Context, buyerID, reviewID int64) error {
	if _, err := u.findOwnedReview(ctx, buyerID, reviewID); err != nil {
		return err
	}
	if err := u.reviews.Delete(ctx, reviewID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *ReviewUsecase) findOwnedReview(ctx context.Context, buyerID, reviewID int64) (model.Review, error) {
	if buyerID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	rv, err := u.reviews.FindByID(ctx, reviewID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Review{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Review{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if rv.BuyerID != buyerID {
		return model.Review{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return rv, nil
}
