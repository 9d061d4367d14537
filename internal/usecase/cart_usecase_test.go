package usecase

import (
	"context"
	"net/http"
	"testing"
	"time"

	"rentalapp/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDurationDaysIsInclusive(t *testing.T) {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	//同日レンタルは1日
	assert.Equal(t, 1, durationDays(start, start))
	assert.Equal(t, 2, durationDays(start, start.AddDate(0, 0, 1)))
	assert.Equal(t, 7, durationDays(start, start.AddDate(0, 0, 6)))
}

func TestParseRentalWindow(t *testing.T) {
	future := time.Now().AddDate(0, 0, 10).Format(dateLayout)
	later := time.Now().AddDate(0, 0, 15).Format(dateLayout)

	t.Run("ok", func(t *testing.T) {
		start, end, err := parseRentalWindow(future, later)
		assert.NoError(t, err)
		assert.True(t, end.After(start))
	})

	t.Run("bad format", func(t *testing.T) {
		_, _, err := parseRentalWindow("2026/07/01", later)
		assert.Error(t, err)
	})

	t.Run("past start", func(t *testing.T) {
		past := time.Now().AddDate(0, 0, -5).Format(dateLayout)
		_, _, err := parseRentalWindow(past, later)
		assert.Error(t, err)
	})

	t.Run("inverted window", func(t *testing.T) {
		_, _, err := parseRentalWindow(later, future)
		assert.Error(t, err)
	})
}

func TestPriceCartLine(t *testing.T) {
	p := model.Product{
		RentalPricePerDay:         200,
		SecurityDepositPercentage: 25,
	}

	t.Run("without try-on", func(t *testing.T) {
		line := priceCartLine(model.CartItem{RentalDurationDays: 4}, p)
		assert.Equal(t, 800.0, line.RentalPrice)
		assert.Equal(t, 200.0, line.SecurityDeposit)
		assert.Equal(t, 0.0, line.TryOnFee)
		assert.Equal(t, 1000.0, line.LineTotal)
	})

	t.Run("with try-on fee", func(t *testing.T) {
		line := priceCartLine(model.CartItem{RentalDurationDays: 4, TryOnRequested: true}, p)
		assert.Equal(t, 50.0, line.TryOnFee)
		assert.Equal(t, 1050.0, line.LineTotal)
	})

	t.Run("zero deposit percentage", func(t *testing.T) {
		p0 := p
		p0.SecurityDepositPercentage = 0
		line := priceCartLine(model.CartItem{RentalDurationDays: 2}, p0)
		assert.Equal(t, 0.0, line.SecurityDeposit)
		assert.Equal(t, 400.0, line.LineTotal)
	})
}

func TestCheckProductAvailability(t *testing.T) {
	ctx := context.Background()
	startStr := time.Now().AddDate(0, 0, 10).Format(dateLayout)
	endStr := time.Now().AddDate(0, 0, 14).Format(dateLayout)

	listed := model.Product{
		ID:                 3,
		Visibility:         model.VisibilityVisible,
		AvailabilityStatus: model.AvailabilityAvailable,
	}

	t.Run("free window", func(t *testing.T) {
		products := new(productRepoMock)
		orders := new(orderRepoMock)
		products.On("FindByID", ctx, int64(3)).Return(listed, nil)
		orders.On("CountOverlapping", ctx, int64(3), mock.Anything, mock.Anything, blockingOrderStatuses).
			Return(int64(0), nil)

		u := NewCartUsecase(nil, products, orders)
		out, err := u.CheckProductAvailability(ctx, 3, startStr, endStr)
		assert.NoError(t, err)
		assert.True(t, out.Available)
	})

	t.Run("overlapping booking blocks the window", func(t *testing.T) {
		products := new(productRepoMock)
		orders := new(orderRepoMock)
		products.On("FindByID", ctx, int64(3)).Return(listed, nil)
		//両端を含む比較はリポジトリ側。件数>0なら不可。
		orders.On("CountOverlapping", ctx, int64(3), mock.Anything, mock.Anything, blockingOrderStatuses).
			Return(int64(1), nil)

		u := NewCartUsecase(nil, products, orders)
		out, err := u.CheckProductAvailability(ctx, 3, startStr, endStr)
		assert.NoError(t, err)
		assert.False(t, out.Available)
	})

	t.Run("booked flag wins even with an empty calendar", func(t *testing.T) {
		products := new(productRepoMock)
		orders := new(orderRepoMock)
		booked := listed
		booked.AvailabilityStatus = model.AvailabilityBooked
		products.On("FindByID", ctx, int64(3)).Return(booked, nil)

		u := NewCartUsecase(nil, products, orders)
		out, err := u.CheckProductAvailability(ctx, 3, startStr, endStr)
		assert.NoError(t, err)
		assert.False(t, out.Available)
		orders.AssertNotCalled(t, "CountOverlapping", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("hidden product is never available", func(t *testing.T) {
		products := new(productRepoMock)
		orders := new(orderRepoMock)
		hidden := listed
		hidden.Visibility = model.VisibilityHidden
		products.On("FindByID", ctx, int64(3)).Return(hidden, nil)

		u := NewCartUsecase(nil, products, orders)
		out, err := u.CheckProductAvailability(ctx, 3, startStr, endStr)
		assert.NoError(t, err)
		assert.False(t, out.Available)
	})
}

func TestAddToCartRejectsNonAvailableProduct(t *testing.T) {
	ctx := context.Background()
	in := AddToCartInput{
		ProductID:       3,
		RentalStartDate: time.Now().AddDate(0, 0, 10).Format(dateLayout),
		RentalEndDate:   time.Now().AddDate(0, 0, 14).Format(dateLayout),
	}

	products := new(productRepoMock)
	products.On("FindByID", ctx, int64(3)).Return(model.Product{
		ID:                 3,
		SellerID:           6,
		Visibility:         model.VisibilityVisible,
		AvailabilityStatus: model.AvailabilityBooked,
	}, nil)

	u := NewCartUsecase(nil, products, new(orderRepoMock))
	_, err := u.AddToCart(ctx, 5, in)
	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Status)
	assert.Equal(t, "product is not available", he.Message)
}
