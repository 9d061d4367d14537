package usecase

import (
	"context"
	"errors"
	"net/http"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"
)

type DashboardUsecase struct {
	users    repo.UserRepository
	products repo.ProductRepository
	orders   repo.OrderRepository
	rtRepo   repo.RefreshTokenRepository
}

func NewDashboardUsecase(
	users repo.UserRepository,
	products repo.ProductRepository,
	orders repo.OrderRepository,
	rtRepo repo.RefreshTokenRepository,
) *DashboardUsecase {
	return &DashboardUsecase{users: users, products: products, orders: orders, rtRepo: rtRepo}
}

type DashboardOutput struct {
	TotalBuyers           int64            `json:"total_buyers"`
	TotalSellers          int64            `json:"total_sellers"`
	TotalDeliveryPartners int64            `json:"total_delivery_partners"`
	AvailableProducts     int64            `json:"available_products"`
	OrdersByStatus        map[string]int64 `json:"orders_by_status"`
	TotalRevenue          float64          `json:"total_revenue"`
	RecentOrders          []model.Order    `json:"recent_orders"`
}

func (u *DashboardUsecase) GetDashboard(ctx context.Context) (DashboardOutput, error) {
	out := DashboardOutput{OrdersByStatus: map[string]int64{}}

	var err error
	if out.TotalBuyers, err = u.users.CountByRole(ctx, model.RoleBuyer); err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if out.TotalSellers, err = u.users.CountByRole(ctx, model.RoleSeller); err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if out.TotalDeliveryPartners, err = u.users.CountByRole(ctx, model.RoleDeliveryPartner); err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if out.AvailableProducts, err = u.products.CountAvailable(ctx); err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	for _, s := range []model.OrderStatus{
		model.OrderStatusUpcoming,
		model.OrderStatusOngoing,
		model.OrderStatusCompleted,
		model.OrderStatusLate,
		model.OrderStatusCancelled,
	} {
		n, err := u.orders.CountByStatus(ctx, s)
		if err != nil {
			return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out.OrdersByStatus[string(s)] = n
	}

	if out.TotalRevenue, err = u.orders.SumCompletedRevenue(ctx); err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if out.RecentOrders, err = u.orders.ListRecent(ctx, 10); err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return out, nil
}

func (u *DashboardUsecase) ListUsers(ctx context.Context, roles []string) ([]model.User, error) {
	rs := make([]model.Role, 0, len(roles))
	for _, s := range roles {
		r := model.Role(s)
		if !r.Valid() {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid role filter")
		}
		rs = append(rs, r)
	}
	if len(rs) == 0 {
		rs = []model.Role{model.RoleBuyer, model.RoleSeller, model.RoleDeliveryPartner}
	}

	users, err := u.users.ListByRoles(ctx, rs)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return users, nil
}

// 凍結。既発行のトークンも失効させる。
func (u *DashboardUsecase) SetUserActive(ctx context.Context, targetUserID int64, active bool) (model.User, error) {
	if targetUserID <= 0 {
		return model.User{}, NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	target, err := u.users.FindByID(ctx, targetUserID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.User{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if target.Role == model.RoleAdmin {
		return model.User{}, NewHTTPError(http.StatusForbidden, "cannot deactivate an admin account")
	}

	if err := u.users.UpdateFields(ctx, targetUserID, map[string]interface{}{"is_active": active}); err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !active {
		if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
			return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	updated, err := u.users.FindByID(ctx, targetUserID)
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return updated, nil
}
