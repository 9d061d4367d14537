package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"rentalapp/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type notificationRepoMock struct{ mock.Mock }

func (m *notificationRepoMock) Create(ctx context.Context, n *model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
func (m *notificationRepoMock) ListPending(ctx context.Context, batch int) ([]model.Notification, error) {
	args := m.Called(ctx, batch)
	items, _ := args.Get(0).([]model.Notification)
	return items, args.Error(1)
}
func (m *notificationRepoMock) MarkSent(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}
func (m *notificationRepoMock) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	args := m.Called(ctx, id, errMsg)
	return args.Error(0)
}
func (m *notificationRepoMock) ListByUser(ctx context.Context, userID int64, page, limit int) ([]model.Notification, int64, error) {
	panic("not used")
}

type userRepoMock struct{ mock.Mock }

func (m *userRepoMock) Create(ctx context.Context, user *model.User) error { panic("not used") }
func (m *userRepoMock) FindByID(ctx context.Context, userID int64) (model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}
func (m *userRepoMock) FindByEmail(ctx context.Context, email string) (model.User, error) {
	panic("not used")
}
func (m *userRepoMock) FindByReferralCode(ctx context.Context, code string) (model.User, error) {
	panic("not used")
}
func (m *userRepoMock) Update(ctx context.Context, user *model.User) error { panic("not used") }
func (m *userRepoMock) UpdateFields(ctx context.Context, userID int64, fields map[string]interface{}) error {
	panic("not used")
}
func (m *userRepoMock) IncrementTokenVersion(ctx context.Context, userID int64) error {
	panic("not used")
}
func (m *userRepoMock) ListByRoles(ctx context.Context, roles []model.Role) ([]model.User, error) {
	panic("not used")
}
func (m *userRepoMock) CountByRole(ctx context.Context, role model.Role) (int64, error) {
	panic("not used")
}

type senderMock struct{ mock.Mock }

func (m *senderMock) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRenderTemplate(t *testing.T) {
	out := renderTemplate("Hi {name}, your {item} is due", map[string]string{
		"name": "Aiko",
		"item": "dress",
	})
	assert.Equal(t, "Hi Aiko, your dress is due", out)

	//未解決のキーはそのまま残る
	out = renderTemplate("Hi {name}", nil)
	assert.Equal(t, "Hi {name}", out)
}

func TestNotificationTemplatesCoverAllEvents(t *testing.T) {
	events := []string{
		model.EventAccountCreated,
		model.EventKYCApproved,
		model.EventKYCRejected,
		model.EventProductListed,
		model.EventProductBooked,
		model.EventRentalConfirmed,
		model.EventProductReturned,
		model.EventLateReturn,
		model.EventLateFeeApplied,
		model.EventDamageReported,
		model.EventSecurityDepositRefunded,
		model.EventDeliveryAssigned,
		model.EventReferralCompleted,
		model.EventOrderCancelled,
	}
	for _, ev := range events {
		_, ok := notificationTemplates[ev]
		assert.True(t, ok, "missing template for %s", ev)
	}
}

func TestDispatchOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("sends pending and marks sent", func(t *testing.T) {
		notifications := new(notificationRepoMock)
		users := new(userRepoMock)
		sender := new(senderMock)

		n := model.Notification{
			ID:               1,
			UserID:           7,
			EventType:        model.EventRentalConfirmed,
			PlaceholdersJSON: `{"title":"Silk Dress"}`,
			Status:           model.NotificationPending,
		}
		notifications.On("ListPending", ctx, 20).Return([]model.Notification{n}, nil)
		users.On("FindByID", ctx, int64(7)).
			Return(model.User{ID: 7, Email: "buyer@example.com", EmailNotifications: true}, nil)
		sender.On("Send", ctx, "buyer@example.com", mock.Anything, mock.Anything).Return(nil)
		notifications.On("MarkSent", ctx, int64(1), mock.Anything).Return(nil)

		d := NewNotificationDispatcher(notifications, users, sender, discardLogger())
		assert.NoError(t, d.DispatchOnce(ctx))

		sender.AssertCalled(t, "Send", ctx, "buyer@example.com", mock.Anything, mock.Anything)
		notifications.AssertCalled(t, "MarkSent", ctx, int64(1), mock.Anything)
	})

	t.Run("opted-out user is marked sent without mail", func(t *testing.T) {
		notifications := new(notificationRepoMock)
		users := new(userRepoMock)
		sender := new(senderMock)

		n := model.Notification{ID: 2, UserID: 8, EventType: model.EventProductListed}
		notifications.On("ListPending", ctx, 20).Return([]model.Notification{n}, nil)
		users.On("FindByID", ctx, int64(8)).
			Return(model.User{ID: 8, Email: "seller@example.com", EmailNotifications: false}, nil)
		notifications.On("MarkSent", ctx, int64(2), mock.Anything).Return(nil)

		d := NewNotificationDispatcher(notifications, users, sender, discardLogger())
		assert.NoError(t, d.DispatchOnce(ctx))

		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		notifications.AssertCalled(t, "MarkSent", ctx, int64(2), mock.Anything)
	})

	t.Run("failed delivery is recorded and does not stop the batch", func(t *testing.T) {
		notifications := new(notificationRepoMock)
		users := new(userRepoMock)
		sender := new(senderMock)

		bad := model.Notification{ID: 3, UserID: 9, EventType: model.EventLateReturn}
		good := model.Notification{ID: 4, UserID: 10, EventType: model.EventLateReturn}
		notifications.On("ListPending", ctx, 20).Return([]model.Notification{bad, good}, nil)
		users.On("FindByID", ctx, int64(9)).
			Return(model.User{ID: 9, Email: "a@example.com", EmailNotifications: true}, nil)
		users.On("FindByID", ctx, int64(10)).
			Return(model.User{ID: 10, Email: "b@example.com", EmailNotifications: true}, nil)
		sender.On("Send", ctx, "a@example.com", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
		sender.On("Send", ctx, "b@example.com", mock.Anything, mock.Anything).Return(nil)
		notifications.On("MarkFailed", ctx, int64(3), mock.Anything).Return(nil)
		notifications.On("MarkSent", ctx, int64(4), mock.Anything).Return(nil)

		d := NewNotificationDispatcher(notifications, users, sender, discardLogger())
		assert.NoError(t, d.DispatchOnce(ctx))

		notifications.AssertCalled(t, "MarkFailed", ctx, int64(3), mock.Anything)
		notifications.AssertCalled(t, "MarkSent", ctx, int64(4), mock.Anything)
	})
}
