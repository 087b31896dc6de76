package usecase

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/messaging"
	"storefront/internal/metrics"
	repo "storefront/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type AdminOrderUsecase struct {
	tx         repo.TransactionManager
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	users      repo.UserRepository
	addresses  repo.AddressRepository
	auditLogs  repo.AuditLogRepository

	events  EventPublisher
	metrics *metrics.Metrics
	clock   Clock
	log     *zap.Logger
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	users repo.UserRepository,
	addresses repo.AddressRepository,
	auditLogs repo.AuditLogRepository,
	events EventPublisher,
	m *metrics.Metrics,
	log *zap.Logger,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		tx:         tx,
		orders:     orders,
		orderItems: orderItems,
		users:      users,
		addresses:  addresses,
		auditLogs:  auditLogs,
		events:     events,
		metrics:    m,
		clock:      SystemClock{},
		log:        log,
	}
}

type UpdateOrderStatusInput struct {
	Status         string
	TrackingNumber *string
}

type AdminOrderCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AdminOrderRow struct {
	model.Order
	Customer AdminOrderCustomer `json:"customer"`
}

type AdminOrderDetail struct {
	OrderDetail
	Customer AdminOrderCustomer `json:"customer"`
	History  []model.AuditLog   `json:"history"`
}

func requireAdmin(p Principal) error {
	if p.UserID == "" {
		return NewError(ErrUnauthorized, "Unauthorized")
	}
	if !p.IsAdmin() {
		return NewError(ErrForbidden, "Admin only")
	}
	return nil
}

// 注文一覧（status・検索・ページング）
func (u *AdminOrderUsecase) List(ctx context.Context, p Principal, f repo.AdminOrderListFilter) (Page[AdminOrderRow], error) {
	if err := requireAdmin(p); err != nil {
		return Page[AdminOrderRow]{}, err
	}
	if f.Status != "" {
		if _, ok := model.ParseOrderStatus(f.Status); !ok {
			return Page[AdminOrderRow]{}, validationError("Invalid status")
		}
	}
	f.Page, f.Limit = normalizePage(f.Page, f.Limit, 20)

	orders, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		u.log.Error("admin list orders", zap.Error(err))
		return Page[AdminOrderRow]{}, internalError()
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.UserID)
	}
	users, err := u.users.FindByIDs(ctx, ids)
	if err != nil {
		u.log.Error("admin list orders: load users", zap.Error(err))
		return Page[AdminOrderRow]{}, internalError()
	}
	byID := make(map[string]model.User, len(users))
	for _, usr := range users {
		byID[usr.ID] = usr
	}

	rows := make([]AdminOrderRow, 0, len(orders))
	for _, o := range orders {
		usr := byID[o.UserID]
		rows = append(rows, AdminOrderRow{
			Order:    o,
			Customer: AdminOrderCustomer{Name: usr.Name, Email: usr.Email},
		})
	}
	return newPage(rows, total, f.Page, f.Limit), nil
}

func (u *AdminOrderUsecase) Get(ctx context.Context, p Principal, orderID string) (AdminOrderDetail, error) {
	if err := requireAdmin(p); err != nil {
		return AdminOrderDetail{}, err
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return AdminOrderDetail{}, NewError(ErrOrderNotFound, "Order not found")
	}
	if err != nil {
		u.log.Error("admin get order", zap.String("order_id", orderID), zap.Error(err))
		return AdminOrderDetail{}, internalError()
	}

	items, err := u.orderItems.ListByOrderID(ctx, o.ID)
	if err != nil {
		u.log.Error("admin get order items", zap.String("order_id", orderID), zap.Error(err))
		return AdminOrderDetail{}, internalError()
	}
	history, err := u.auditLogs.ListByResource(ctx, model.AuditResourceOrder, o.ID)
	if err != nil {
		u.log.Error("admin get order history", zap.String("order_id", orderID), zap.Error(err))
		return AdminOrderDetail{}, internalError()
	}

	out := AdminOrderDetail{
		OrderDetail: OrderDetail{Order: o, Items: items},
		History:     history,
	}
	if addr, err := u.addresses.FindByID(ctx, o.AddressID); err == nil {
		out.Address = &addr
	}
	if usr, err := u.users.FindByID(ctx, o.UserID); err == nil {
		out.Customer = AdminOrderCustomer{Name: usr.Name, Email: usr.Email}
	}
	return out, nil
}

// UpdateStatus は遷移表に沿ってステータスを進める。
// 追跡番号はSHIPPEDへの遷移でだけ受け付ける
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, p Principal, orderID string, in UpdateOrderStatusInput) (model.Order, error) {
	ctx, span := tracer.Start(ctx, "AdminOrderUsecase.UpdateStatus")
	defer span.End()

	if err := requireAdmin(p); err != nil {
		return model.Order{}, err
	}

	to, ok := model.ParseOrderStatus(strings.TrimSpace(in.Status))
	if !ok {
		return model.Order{}, validationError("Invalid status")
	}

	tracking := in.TrackingNumber
	if tracking != nil {
		t := strings.TrimSpace(*tracking)
		if t == "" {
			tracking = nil
		} else {
			tracking = &t
		}
	}
	if tracking != nil && to != model.OrderStatusShipped {
		return model.Order{}, validationError("Tracking number can only be set when shipping")
	}

	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("order.to", string(to)))

	var res transitionResult
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		res, err = applyTransition(ctx, r, transitionRequest{
			ActorUserID:    p.UserID,
			OrderID:        orderID,
			To:             to,
			TrackingNumber: tracking,
		})
		return err
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return model.Order{}, err
		}
		u.log.Error("admin update order status", zap.String("order_id", orderID), zap.Error(err))
		return model.Order{}, internalError()
	}

	u.metrics.OrderTransitions.WithLabelValues(string(res.From), string(to)).Inc()
	u.log.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(res.From)),
		zap.String("to", string(to)),
		zap.String("admin_id", p.UserID),
	)

	if u.events != nil {
		if err := u.events.Publish(ctx, orderID, messaging.OrderStatusChangedEvent{
			Type:           messaging.EventOrderStatusChanged,
			OrderID:        orderID,
			From:           string(res.From),
			To:             string(to),
			TrackingNumber: res.Order.TrackingNumber,
			ActorUserID:    p.UserID,
			OccurredAt:     u.clock.Now(),
		}); err != nil {
			u.log.Warn("publish order event", zap.String("order_id", orderID), zap.Error(err))
		}
	}

	return res.Order, nil
}
