package usecase

import (
	"context"
	"net/http"
	"testing"
	"time"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks
// =====================

type orderRepoMock struct{ mock.Mock }

func (m *orderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}
func (m *orderRepoMock) Create(ctx context.Context, order *model.Order) error { panic("not used") }
func (m *orderRepoMock) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	panic("not used")
}
func (m *orderRepoMock) ListOverdue(ctx context.Context, today time.Time, page, limit int) ([]model.Order, int64, error) {
	panic("not used")
}
func (m *orderRepoMock) ListMissedPickups(ctx context.Context, now time.Time) ([]model.Order, error) {
	panic("not used")
}
func (m *orderRepoMock) ListWithDeposit(ctx context.Context) ([]model.Order, error) {
	panic("not used")
}
func (m *orderRepoMock) UpdateFields(ctx context.Context, orderID int64, fields map[string]interface{}) error {
	args := m.Called(ctx, orderID, fields)
	return args.Error(0)
}
func (m *orderRepoMock) IncrementLateFee(ctx context.Context, orderID int64, amount float64, at time.Time) error {
	args := m.Called(ctx, orderID, amount, at)
	return args.Error(0)
}
func (m *orderRepoMock) CountOverlapping(ctx context.Context, productID int64, start, end time.Time, blocking []model.OrderStatus) (int64, error) {
	args := m.Called(ctx, productID, start, end, blocking)
	return args.Get(0).(int64), args.Error(1)
}
func (m *orderRepoMock) CountByBuyer(ctx context.Context, buyerID int64) (int64, error) {
	panic("not used")
}
func (m *orderRepoMock) CountByProductAndStatuses(ctx context.Context, productID int64, statuses []model.OrderStatus) (int64, error) {
	panic("not used")
}
func (m *orderRepoMock) CountByStatus(ctx context.Context, status model.OrderStatus) (int64, error) {
	panic("not used")
}
func (m *orderRepoMock) EarningsBySeller(ctx context.Context, sellerID int64) (repo.SellerEarnings, error) {
	panic("not used")
}
func (m *orderRepoMock) SumCompletedRevenue(ctx context.Context) (float64, error) {
	panic("not used")
}
func (m *orderRepoMock) ListRecent(ctx context.Context, limit int) ([]model.Order, error) {
	panic("not used")
}

type productRepoMock struct{ mock.Mock }

func (m *productRepoMock) FindByID(ctx context.Context, productID int64) (model.Product, error) {
	args := m.Called(ctx, productID)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}
func (m *productRepoMock) List(ctx context.Context, f repo.ProductListFilter) ([]model.Product, int64, error) {
	panic("not used")
}
func (m *productRepoMock) Create(ctx context.Context, p *model.Product) error { panic("not used") }
func (m *productRepoMock) Update(ctx context.Context, p *model.Product) error { panic("not used") }
func (m *productRepoMock) Delete(ctx context.Context, productID int64) error  { panic("not used") }
func (m *productRepoMock) UpdateVisibility(ctx context.Context, productID int64, v model.Visibility) error {
	panic("not used")
}
func (m *productRepoMock) UpdateAvailability(ctx context.Context, productID int64, s model.AvailabilityStatus) error {
	args := m.Called(ctx, productID, s)
	return args.Error(0)
}
func (m *productRepoMock) UpdateCommission(ctx context.Context, productID int64, commission float64) error {
	args := m.Called(ctx, productID, commission)
	return args.Error(0)
}
func (m *productRepoMock) AddImage(ctx context.Context, img *model.ProductImage) error {
	panic("not used")
}
func (m *productRepoMock) CountImages(ctx context.Context, productID int64) (int64, error) {
	panic("not used")
}
func (m *productRepoMock) CountAvailable(ctx context.Context) (int64, error) { panic("not used") }

// トランザクションを素通しするテスト用ハーネス
type txReposStub struct {
	orders        repo.OrderRepository
	products      repo.ProductRepository
	notifications repo.NotificationRepository
	referrals     repo.ReferralRepository
}

func (s txReposStub) Orders() repo.OrderRepository       { return s.orders }
func (s txReposStub) Carts() repo.CartRepository         { panic("not used") }
func (s txReposStub) Products() repo.ProductRepository   { return s.products }
func (s txReposStub) Users() repo.UserRepository         { panic("not used") }
func (s txReposStub) Promos() repo.PromoRepository       { panic("not used") }
func (s txReposStub) Referrals() repo.ReferralRepository { return s.referrals }
func (s txReposStub) Notifications() repo.NotificationRepository {
	return s.notifications
}
func (s txReposStub) Payments() repo.PaymentRepository { panic("not used") }
func (s txReposStub) KYC() repo.KYCRepository          { panic("not used") }

type txManagerStub struct{ repos repo.TxRepos }

func (s txManagerStub) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(s.repos)
}

// =====================
// CalcLateFee
// =====================

func TestCalcLateFee(t *testing.T) {
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	order := model.Order{
		ExpectedReturnDate: due,
		TotalRentalPrice:   1000,
		RentalDurationDays: 10,
	}

	t.Run("on time", func(t *testing.T) {
		days, fee := CalcLateFee(order, due)
		assert.Equal(t, 0, days)
		assert.Equal(t, 0.0, fee)
	})

	t.Run("early return", func(t *testing.T) {
		days, fee := CalcLateFee(order, due.AddDate(0, 0, -2))
		assert.Equal(t, 0, days)
		assert.Equal(t, 0.0, fee)
	})

	t.Run("three days late", func(t *testing.T) {
		//日額100 × 3日 × 10% = 30
		days, fee := CalcLateFee(order, due.AddDate(0, 0, 3))
		assert.Equal(t, 3, days)
		assert.InDelta(t, 30.0, fee, 0.001)
	})

	t.Run("partial day rounds up", func(t *testing.T) {
		days, fee := CalcLateFee(order, due.Add(6*time.Hour))
		assert.Equal(t, 1, days)
		assert.InDelta(t, 10.0, fee, 0.001)
	})

	t.Run("zero duration guards division", func(t *testing.T) {
		o := order
		o.RentalDurationDays = 0
		days, fee := CalcLateFee(o, due.AddDate(0, 0, 1))
		assert.Equal(t, 1, days)
		assert.Equal(t, 0.0, fee)
	})
}

// =====================
// ProcessReturn
// =====================

func TestProcessReturn(t *testing.T) {
	ctx := context.Background()
	partnerID := int64(9)

	baseOrder := func() model.Order {
		return model.Order{
			ID:                 1,
			BuyerID:            5,
			SellerID:           6,
			ProductID:          3,
			DeliveryPartnerID:  &partnerID,
			OrderStatus:        model.OrderStatusOngoing,
			DeliveryStatus:     model.DeliveryStatusDelivered,
			TotalRentalPrice:   1000,
			RentalDurationDays: 10,
		}
	}

	newHarness := func() (*OrderUsecase, *orderRepoMock, *productRepoMock, *notificationRepoMock, *referralRepoMock) {
		orders := new(orderRepoMock)
		products := new(productRepoMock)
		notifications := new(notificationRepoMock)
		referrals := new(referralRepoMock)
		tx := txManagerStub{repos: txReposStub{
			orders:        orders,
			products:      products,
			notifications: notifications,
			referrals:     referrals,
		}}
		u := NewOrderUsecase(tx, orders, nil, nil, nil, nil)
		return u, orders, products, notifications, referrals
	}

	t.Run("late return stays late and accrues the fee", func(t *testing.T) {
		u, orders, products, notifications, referrals := newHarness()

		o := baseOrder()
		//71時間超過 → 切り上げで3日延滞
		o.ExpectedReturnDate = time.Now().Add(-71 * time.Hour)

		var updated map[string]interface{}
		orders.On("FindByID", ctx, int64(1)).Return(o, nil)
		orders.On("UpdateFields", ctx, int64(1), mock.Anything).
			Run(func(args mock.Arguments) {
				updated = args.Get(2).(map[string]interface{})
			}).Return(nil)
		orders.On("IncrementLateFee", ctx, int64(1), mock.Anything, mock.Anything).Return(nil)
		products.On("UpdateAvailability", ctx, int64(3), model.AvailabilityAvailable).Return(nil)
		referrals.On("FindPendingByReferred", ctx, int64(5)).Return(model.Referral{}, repo.ErrNotFound)
		notifications.On("Create", ctx, mock.Anything).Return(nil)

		out, err := u.ProcessReturn(ctx, partnerID, model.RoleDeliveryPartner, 1, ProcessReturnInput{})
		assert.NoError(t, err)
		assert.Equal(t, 3, out.DaysLate)
		assert.InDelta(t, 30.0, out.LateFee, 0.001)

		//延滞返却はcompletedにせずlateのまま精算待ち
		assert.Equal(t, model.OrderStatusLate, updated["order_status"])
		assert.Equal(t, true, updated["is_late_return"])
		assert.Equal(t, model.DeliveryStatusReturned, updated["delivery_status"])
		orders.AssertCalled(t, "IncrementLateFee", ctx, int64(1), mock.Anything, mock.Anything)
	})

	t.Run("on-time return completes the order", func(t *testing.T) {
		u, orders, products, notifications, referrals := newHarness()

		o := baseOrder()
		o.ExpectedReturnDate = time.Now().Add(24 * time.Hour)

		var updated map[string]interface{}
		orders.On("FindByID", ctx, int64(1)).Return(o, nil)
		orders.On("UpdateFields", ctx, int64(1), mock.Anything).
			Run(func(args mock.Arguments) {
				updated = args.Get(2).(map[string]interface{})
			}).Return(nil)
		products.On("UpdateAvailability", ctx, int64(3), model.AvailabilityAvailable).Return(nil)
		referrals.On("FindPendingByReferred", ctx, int64(5)).Return(model.Referral{}, repo.ErrNotFound)
		notifications.On("Create", ctx, mock.Anything).Return(nil)

		out, err := u.ProcessReturn(ctx, partnerID, model.RoleDeliveryPartner, 1, ProcessReturnInput{})
		assert.NoError(t, err)
		assert.Equal(t, 0, out.DaysLate)
		assert.Equal(t, 0.0, out.LateFee)

		assert.Equal(t, model.OrderStatusCompleted, updated["order_status"])
		assert.Equal(t, false, updated["is_late_return"])
		orders.AssertNotCalled(t, "IncrementLateFee", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unassigned partner is rejected", func(t *testing.T) {
		u, orders, _, _, _ := newHarness()

		o := baseOrder()
		o.ExpectedReturnDate = time.Now().Add(24 * time.Hour)
		orders.On("FindByID", ctx, int64(1)).Return(o, nil)

		_, err := u.ProcessReturn(ctx, 999, model.RoleDeliveryPartner, 1, ProcessReturnInput{})
		he, ok := AsHTTPError(err)
		assert.True(t, ok)
		assert.Equal(t, http.StatusForbidden, he.Status)
	})

	t.Run("already returned", func(t *testing.T) {
		u, orders, _, _, _ := newHarness()

		o := baseOrder()
		o.ExpectedReturnDate = time.Now().Add(24 * time.Hour)
		returnedAt := time.Now().Add(-time.Hour)
		o.ActualReturnDate = &returnedAt
		orders.On("FindByID", ctx, int64(1)).Return(o, nil)

		_, err := u.ProcessReturn(ctx, partnerID, model.RoleDeliveryPartner, 1, ProcessReturnInput{})
		he, ok := AsHTTPError(err)
		assert.True(t, ok)
		assert.Equal(t, http.StatusConflict, he.Status)
	})
}
