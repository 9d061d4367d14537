package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rentalapp/internal/domain/model"
	"rentalapp/internal/infra/mail"
	repo "rentalapp/internal/repository"
)

// イベントごとの件名と本文テンプレート。{key}をplaceholdersで置換する。
var notificationTemplates = map[string]struct {
	Subject string
	Body    string
}{
	model.EventAccountCreated: {
		Subject: "Welcome to Yafora",
		Body:    "Hi {name},\n\nYour account has been created. Happy renting!",
	},
	model.EventKYCApproved: {
		Subject: "Your KYC has been approved",
		Body:    "Good news! Your identity verification is complete. You now have full access to your account.",
	},
	model.EventKYCRejected: {
		Subject: "Your KYC could not be approved",
		Body:    "Unfortunately we could not verify your documents.\n\nReason: {reason}\n\nPlease resubmit with the issues fixed.",
	},
	model.EventProductListed: {
		Subject: "Your product is live",
		Body:    "Your listing \"{title}\" is now visible to renters.",
	},
	model.EventProductBooked: {
		Subject: "Your product has been booked",
		Body:    "\"{title}\" was booked (order #{order_id}). Please prepare it for pickup.",
	},
	model.EventRentalConfirmed: {
		Subject: "Rental confirmed",
		Body:    "Your rental of \"{title}\" is confirmed (order #{order_id}).",
	},
	model.EventProductReturned: {
		Subject: "Product returned",
		Body:    "The product for order #{order_id} has been returned.",
	},
	model.EventLateReturn: {
		Subject: "Your rental is overdue",
		Body:    "Order #{order_id} has passed its expected return date. Late fees apply for each day until the product is returned.",
	},
	model.EventLateFeeApplied: {
		Subject: "Late fee applied",
		Body:    "A late fee of {late_fee} has been added to order #{order_id}.",
	},
	model.EventDamageReported: {
		Subject: "Damage reported on your rental",
		Body:    "The seller reported damage on order #{order_id}. Our team will review the claim.",
	},
	model.EventSecurityDepositRefunded: {
		Subject: "Security deposit settled",
		Body:    "Your security deposit for order #{order_id} has been settled. Refund amount: {amount}.",
	},
	model.EventDeliveryAssigned: {
		Subject: "New delivery assigned",
		Body:    "You have been assigned to order #{order_id}.",
	},
	model.EventReferralCompleted: {
		Subject: "Your referral is complete",
		Body:    "A friend you referred completed their first rental. Reward: {reward}.",
	},
	model.EventOrderCancelled: {
		Subject: "Order cancelled",
		Body:    "Order #{order_id} has been cancelled.",
	},
}

// outboxのpending行を拾ってメール送信するワーカー。
// 送信失敗してもoutbox行に記録するだけで、業務処理には影響しない。
type NotificationDispatcher struct {
	notifications repo.NotificationRepository
	users         repo.UserRepository
	sender        mail.Sender
	log           *slog.Logger
	interval      time.Duration
	batch         int
}

func NewNotificationDispatcher(
	notifications repo.NotificationRepository,
	users repo.UserRepository,
	sender mail.Sender,
	log *slog.Logger,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		notifications: notifications,
		users:         users,
		sender:        sender,
		log:           log,
		interval:      30 * time.Second,
		batch:         20,
	}
}

func (d *NotificationDispatcher) Run(ctx context.Context) {
	t := time.NewTicker(d.interval)
	defer t.Stop()

	d.log.Info("notification dispatcher started", "interval", d.interval.String())
	for {
		select {
		case <-ctx.Done():
			d.log.Info("notification dispatcher stopped")
			return
		case <-t.C:
			if err := d.DispatchOnce(ctx); err != nil {
				d.log.Error("dispatch failed", "error", err)
			}
		}
	}
}

func (d *NotificationDispatcher) DispatchOnce(ctx context.Context) error {
	items, err := d.notifications.ListPending(ctx, d.batch)
	if err != nil {
		return err
	}

	for _, n := range items {
		if err := d.deliver(ctx, n); err != nil {
			d.log.Warn("notification delivery failed", "id", n.ID, "event", n.EventType, "error", err)
			if merr := d.notifications.MarkFailed(ctx, n.ID, err.Error()); merr != nil {
				d.log.Error("mark failed error", "id", n.ID, "error", merr)
			}
			continue
		}
		if err := d.notifications.MarkSent(ctx, n.ID, time.Now()); err != nil {
			d.log.Error("mark sent error", "id", n.ID, "error", err)
		}
	}
	return nil
}

func (d *NotificationDispatcher) deliver(ctx context.Context, n model.Notification) error {
	user, err := d.users.FindByID(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("user lookup: %w", err)
	}

	//通知オフのユーザーには送らず送信済み扱いにする
	if !user.EmailNotifications {
		return nil
	}

	tpl, ok := notificationTemplates[n.EventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", n.EventType)
	}

	var placeholders map[string]string
	if n.PlaceholdersJSON != "" {
		if err := json.Unmarshal([]byte(n.PlaceholdersJSON), &placeholders); err != nil {
			return fmt.Errorf("placeholders: %w", err)
		}
	}

	subject := renderTemplate(tpl.Subject, placeholders)
	body := renderTemplate(tpl.Body, placeholders)
	return d.sender.Send(ctx, user.Email, subject, body)
}

func renderTemplate(s string, placeholders map[string]string) string {
	for k, v := range placeholders {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}
