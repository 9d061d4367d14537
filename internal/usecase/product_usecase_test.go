package usecase

import (
	"context"
	"net/http"
	"testing"

	"rentalapp/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestAdminUpdateCommission(t *testing.T) {
	ctx := context.Background()

	t.Run("bounds are inclusive", func(t *testing.T) {
		for _, commission := range []float64{0, 25.5, 100} {
			products := new(productRepoMock)
			products.On("FindByID", ctx, int64(3)).Return(model.Product{ID: 3, SecurityDepositPercentage: 20}, nil)
			products.On("UpdateCommission", ctx, int64(3), commission).Return(nil)

			u := NewProductUsecase(products, nil, nil, nil, nil, nil)
			p, err := u.AdminUpdateCommission(ctx, 3, UpdateCommissionInput{Commission: commission})
			assert.NoError(t, err)
			assert.Equal(t, commission, p.SecurityDepositPercentage)
		}
	})

	t.Run("out-of-range rates are rejected", func(t *testing.T) {
		for _, commission := range []float64{-1, 100.01, 150} {
			products := new(productRepoMock)

			u := NewProductUsecase(products, nil, nil, nil, nil, nil)
			_, err := u.AdminUpdateCommission(ctx, 3, UpdateCommissionInput{Commission: commission})
			he, ok := AsHTTPError(err)
			assert.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, he.Status)
			products.AssertNotCalled(t, "UpdateCommission", mock.Anything, mock.Anything, mock.Anything)
		}
	})
}
