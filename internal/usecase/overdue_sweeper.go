package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"
)

// 返却予定日を過ぎたongoing注文をlateに落とすワーカー。
// 遷移は一度きり（lateはListOverdueの対象外になる）。
type OverdueSweeper struct {
	tx       repo.TransactionManager
	orders   repo.OrderRepository
	log      *slog.Logger
	interval time.Duration
}

func NewOverdueSweeper(tx repo.TransactionManager, orders repo.OrderRepository, log *slog.Logger) *OverdueSweeper {
	return &OverdueSweeper{
		tx:       tx,
		orders:   orders,
		log:      log,
		interval: 1 * time.Hour,
	}
}

func (s *OverdueSweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.log.Info("overdue sweeper started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.log.Info("overdue sweeper stopped")
			return
		case <-t.C:
			n, err := s.SweepOnce(ctx)
			if err != nil {
				s.log.Error("overdue sweep failed", "error", err)
				continue
			}
			if n > 0 {
				s.log.Info("orders marked late", "count", n)
			}
		}
	}
}

func (s *OverdueSweeper) SweepOnce(ctx context.Context) (int, error) {
	now := time.Now()
	marked := 0

	for {
		items, _, err := s.orders.ListOverdue(ctx, now, 1, 50)
		if err != nil {
			return marked, err
		}
		if len(items) == 0 {
			return marked, nil
		}

		for _, o := range items {
			err := s.tx.WithinTx(ctx, func(r repo.TxRepos) error {
				if err := r.Orders().UpdateFields(ctx, o.ID, map[string]interface{}{
					"order_status": model.OrderStatusLate,
				}); err != nil {
					return err
				}
				n := model.Notification{
					UserID:           o.BuyerID,
					EventType:        model.EventLateReturn,
					PlaceholdersJSON: mustPlaceholders(map[string]string{"order_id": strconv.FormatInt(o.ID, 10)}),
					Status:           model.NotificationPending,
				}
				return r.Notifications().Create(ctx, &n)
			})
			if err != nil {
				return marked, err
			}
			marked++
		}
	}
}
