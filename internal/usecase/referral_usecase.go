package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"rentalapp/internal/config"
	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"
)

type ReferralUsecase struct {
	cfg       config.Config
	referrals repo.ReferralRepository
	users     repo.UserRepository
}

func NewReferralUsecase(
	cfg config.Config,
	referrals repo.ReferralRepository,
	users repo.UserRepository,
) *ReferralUsecase {
	return &ReferralUsecase{cfg: cfg, referrals: referrals, users: users}
}

type ReferralStatsOutput struct {
	ReferralCode       string           `json:"referral_code"`
	ReferralLink       string           `json:"referral_link"`
	PendingReferrals   int64            `json:"pending_referrals"`
	CompletedReferrals int64            `json:"completed_referrals"`
	TotalRewardAmount  float64          `json:"total_reward_amount"`
	Referrals          []model.Referral `json:"referrals"`
}

func (u *ReferralUsecase) GetReferralStats(ctx context.Context, userID int64) (ReferralStatsOutput, error) {
	if userID <= 0 {
		return ReferralStatsOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ReferralStatsOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ReferralStatsOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.referrals.ListByReferrer(ctx, userID)
	if err != nil {
		return ReferralStatsOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := ReferralStatsOutput{
		ReferralCode: user.ReferralCode,
		ReferralLink: fmt.Sprintf("%s/signup?ref=%s", u.cfg.FrontendBaseURL, user.ReferralCode),
		Referrals:    items,
	}
	for _, r := range items {
		switch r.Status {
		case model.ReferralStatusPending:
			out.PendingReferrals++
		case model.ReferralStatusCompleted:
			out.CompletedReferrals++
			out.TotalRewardAmount += r.RewardAmount
		}
	}
	return out, nil
}

// 被紹介者の最初の注文完了で紹介をcompletedにする。
// 注文完了処理と同じトランザクション内で呼ぶ。紹介が無ければ何もしない。
func completeReferralIfFirst(ctx context.Context, r repo.TxRepos, buyerID int64) error {
	ref, err := r.Referrals().FindPendingByReferred(ctx, buyerID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	ref.Status = model.ReferralStatusCompleted
	if err := r.Referrals().Update(ctx, &ref); err != nil {
		return err
	}

	//紹介者へ成立通知
	n := model.Notification{
		UserID:           ref.ReferrerID,
		EventType:        model.EventReferralCompleted,
		PlaceholdersJSON: mustPlaceholders(map[string]string{"reward": fmt.Sprintf("%.0f", ref.RewardAmount)}),
		Status:           model.NotificationPending,
	}
	return r.Notifications().Create(ctx, &n)
}
