package usecase

import (
	"context"
	"errors"
	"net/http"

	"rentalapp/internal/domain/model"
	repo "rentalapp/internal/repository"
)

// 配達員向けの操作。自分にアサインされた注文だけ扱える。
type DeliveryUsecase struct {
	orders repo.OrderRepository
}

func NewDeliveryUsecase(orders repo.OrderRepository) *DeliveryUsecase {
	return &DeliveryUsecase{orders: orders}
}

func (u *DeliveryUsecase) ListAssignedOrders(ctx context.Context, partnerID int64, deliveryStatuses []string, page, limit int) (OrderListOutput, error) {
	if partnerID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	f := repo.OrderListFilter{DeliveryPartnerID: &partnerID}
	for _, s := range deliveryStatuses {
		st := model.DeliveryStatus(s)
		if !st.Valid() {
			return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status filter")
		}
		f.DeliveryStatuses = append(f.DeliveryStatuses, st)
	}

	f.Page, f.Limit = normalizePage(page, limit)
	items, total, err := u.orders.List(ctx, f)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return OrderListOutput{Items: items, Pagination: newPagination(f.Page, f.Limit, total)}, nil
}

type DeliveryProgressInput struct {
	Status string `json:"status"`
}

// 配送の前進。遷移表に従い、同値はno-op。
// 配達完了(delivered)で注文をongoingへ進める。
func (u *DeliveryUsecase) UpdateProgress(ctx context.Context, partnerID, orderID int64, in DeliveryProgressInput) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	next := model.DeliveryStatus(in.Status)
	if !next.Valid() {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid delivery status")
	}
	//キャンセルと返却確定は配達員からは操作させない
	switch next {
	case model.DeliveryStatusCancelled, model.DeliveryStatusReturned, model.DeliveryStatusReturnedDamaged:
		return model.Order{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if o.DeliveryPartnerID == nil || *o.DeliveryPartnerID != partnerID {
		return model.Order{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	if o.DeliveryStatus == next {
		return o, nil
	}
	if !o.DeliveryStatus.CanTransitionTo(next) {
		return model.Order{}, NewHTTPError(http.StatusConflict, "invalid status transition")
	}

	fields := map[string]interface{}{"delivery_status": next}
	if next == model.DeliveryStatusDelivered && o.OrderStatus == model.OrderStatusUpcoming {
		fields["order_status"] = model.OrderStatusOngoing
	}

	if err := u.orders.UpdateFields(ctx, orderID, fields); err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	o2, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return o2, nil
}
