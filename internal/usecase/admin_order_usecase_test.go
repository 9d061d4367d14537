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

func TestProcessSecurityDeposit(t *testing.T) {
	ctx := context.Background()
	adminID := int64(99)

	heldOrder := func() model.Order {
		return model.Order{
			ID:                    1,
			BuyerID:               5,
			SecurityDeposit:       500,
			SecurityDepositStatus: model.DepositStatusHeld,
			OrderStatus:           model.OrderStatusCompleted,
		}
	}

	newHarness := func() (*AdminOrderUsecase, *orderRepoMock, *notificationRepoMock) {
		orders := new(orderRepoMock)
		notifications := new(notificationRepoMock)
		tx := txManagerStub{repos: txReposStub{orders: orders, notifications: notifications}}
		u := NewAdminOrderUsecase(tx, orders, nil, nil)
		return u, orders, notifications
	}

	settle := func(t *testing.T, in ProcessDepositInput) map[string]interface{} {
		t.Helper()
		u, orders, notifications := newHarness()

		var updated map[string]interface{}
		orders.On("FindByID", ctx, int64(1)).Return(heldOrder(), nil)
		orders.On("UpdateFields", ctx, int64(1), mock.Anything).
			Run(func(args mock.Arguments) {
				updated = args.Get(2).(map[string]interface{})
			}).Return(nil)
		notifications.On("Create", ctx, mock.Anything).Return(nil)

		_, err := u.ProcessSecurityDeposit(ctx, adminID, 1, in)
		assert.NoError(t, err)
		return updated
	}

	t.Run("release refunds the full deposit", func(t *testing.T) {
		updated := settle(t, ProcessDepositInput{Action: "release"})
		assert.Equal(t, model.DepositStatusReleased, updated["security_deposit_status"])
		assert.Equal(t, 500.0, updated["security_deposit_refund_amount"])
	})

	t.Run("partially_refunded keeps the difference", func(t *testing.T) {
		updated := settle(t, ProcessDepositInput{Action: "partially_refunded", RefundAmount: 200})
		assert.Equal(t, model.DepositStatusPartiallyRefunded, updated["security_deposit_status"])
		assert.Equal(t, 200.0, updated["security_deposit_refund_amount"])
	})

	t.Run("forfeited refunds nothing", func(t *testing.T) {
		updated := settle(t, ProcessDepositInput{Action: "forfeited", Notes: "damage beyond repair"})
		assert.Equal(t, model.DepositStatusForfeited, updated["security_deposit_status"])
		assert.Equal(t, 0.0, updated["security_deposit_refund_amount"])
		assert.Equal(t, "damage beyond repair", updated["admin_notes"])
	})

	t.Run("partial refund must stay within the deposit", func(t *testing.T) {
		for _, amount := range []float64{0, -50, 500.01, 600} {
			u, orders, _ := newHarness()
			orders.On("FindByID", ctx, int64(1)).Return(heldOrder(), nil)

			_, err := u.ProcessSecurityDeposit(ctx, adminID, 1, ProcessDepositInput{
				Action:       "partially_refunded",
				RefundAmount: amount,
			})
			he, ok := AsHTTPError(err)
			assert.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, he.Status)
			orders.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		u, orders, _ := newHarness()
		orders.On("FindByID", ctx, int64(1)).Return(heldOrder(), nil)

		_, err := u.ProcessSecurityDeposit(ctx, adminID, 1, ProcessDepositInput{Action: "keep"})
		he, ok := AsHTTPError(err)
		assert.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Status)
	})

	t.Run("already settled deposit conflicts", func(t *testing.T) {
		u, orders, _ := newHarness()
		o := heldOrder()
		o.SecurityDepositStatus = model.DepositStatusForfeited
		at := time.Now().Add(-time.Hour)
		o.SecurityDepositReleasedAt = &at
		orders.On("FindByID", ctx, int64(1)).Return(o, nil)

		_, err := u.ProcessSecurityDeposit(ctx, adminID, 1, ProcessDepositInput{Action: "release"})
		he, ok := AsHTTPError(err)
		assert.True(t, ok)
		assert.Equal(t, http.StatusConflict, he.Status)
	})

	t.Run("no deposit to settle", func(t *testing.T) {
		u, orders, _ := newHarness()
		o := heldOrder()
		o.SecurityDeposit = 0
		orders.On("FindByID", ctx, int64(1)).Return(o, nil)

		_, err := u.ProcessSecurityDeposit(ctx, adminID, 1, ProcessDepositInput{Action: "release"})
		he, ok := AsHTTPError(err)
		assert.True(t, ok)
		assert.Equal(t, http.StatusConflict, he.Status)
	})
}
