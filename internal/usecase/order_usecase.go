package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/messaging"
	"storefront/internal/metrics"
	repo "storefront/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

type OrderUsecase struct {
	tx         repo.TransactionManager
	addresses  repo.AddressRepository
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository

	locker  CheckoutLocker
	events  EventPublisher
	metrics *metrics.Metrics
	clock   Clock
	log     *zap.Logger
}

type OrderOption func(*OrderUsecase)

// 未設定ならロックなし
func WithCheckoutLocker(l CheckoutLocker) OrderOption {
	return func(u *OrderUsecase) { u.locker = l }
}

// 未設定ならイベントを送らない
func WithOrderEvents(p EventPublisher) OrderOption {
	return func(u *OrderUsecase) { u.events = p }
}

func WithOrderClock(c Clock) OrderOption {
	return func(u *OrderUsecase) { u.clock = c }
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	addresses repo.AddressRepository,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	m *metrics.Metrics,
	log *zap.Logger,
	opts ...OrderOption,
) *OrderUsecase {
	u := &OrderUsecase{
		tx:         tx,
		addresses:  addresses,
		orders:     orders,
		orderItems: orderItems,
		metrics:    m,
		clock:      SystemClock{},
		log:        log,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type PlaceOrderInput struct {
	AddressID string
}

type PlaceOrderOutput struct {
	OrderID string `json:"orderId"`
}

type OrderDetail struct {
	model.Order
	Items   []model.OrderItem `json:"items"`
	Address *model.Address    `json:"address,omitempty"`
}

// 在庫の減算に負けた（確認後に他の注文が在庫を取った）
var errStockRaced = errors.New("stock changed during checkout")

// 読んだ明細と消した明細の数が合わない（同じカートが別の注文になった）
var errCartChanged = errors.New("cart changed during checkout")

// PlaceOrder はカートの中身を1トランザクションで注文に変える。
// 途中で失敗したら注文・明細・在庫・カートはすべて元のまま
func (u *OrderUsecase) PlaceOrder(ctx context.Context, p Principal, in PlaceOrderInput) (out PlaceOrderOutput, err error) {
	ctx, span := tracer.Start(ctx, "OrderUsecase.PlaceOrder")
	defer span.End()
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			u.metrics.CheckoutRejected.WithLabelValues(rejectReason(err)).Inc()
		}
	}()

	if p.UserID == "" {
		return PlaceOrderOutput{}, NewError(ErrUnauthorized, "Unauthorized")
	}
	addressID := strings.TrimSpace(in.AddressID)
	if addressID == "" {
		return PlaceOrderOutput{}, NewError(ErrInvalidAddress, "Please select a delivery address")
	}

	//住所の存在確認＋所有チェック（他人の住所も存在しない扱い）
	addr, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && addr.UserID != p.UserID) {
		return PlaceOrderOutput{}, NewError(ErrInvalidAddress, "Invalid address")
	}
	if err != nil {
		u.log.Error("checkout: load address", zap.String("user_id", p.UserID), zap.Error(err))
		return PlaceOrderOutput{}, internalError()
	}

	//二重送信ガード。redisが落ちていてもDBで守れるので続行する
	if u.locker != nil {
		release, ok, lockErr := u.locker.Acquire(ctx, p.UserID)
		switch {
		case lockErr != nil:
			u.log.Warn("checkout: lock unavailable", zap.String("user_id", p.UserID), zap.Error(lockErr))
		case !ok:
			return PlaceOrderOutput{}, NewError(ErrCheckoutInProgress, "Checkout already in progress")
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					u.log.Warn("checkout: release lock", zap.String("user_id", p.UserID), zap.Error(err))
				}
			}()
		}
	}

	var placed model.Order
	var itemCount int

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//カート行をロックして、同じカートの並行チェックアウトを直列にする
		cart, err := r.Carts().LockByUserID(ctx, p.UserID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(ErrEmptyCart, "Cart is empty")
		}
		if err != nil {
			return err
		}

		lines, err := r.CartItems().ListLinesByCartID(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return NewError(ErrEmptyCart, "Cart is empty")
		}

		//1行でも足りなければ注文全体を拒否
		var total int64
		for _, l := range lines {
			if l.Item.Quantity > l.Variant.Stock {
				return NewError(ErrInsufficientStock, fmt.Sprintf(
					"Not enough stock for %s %s. Available: %d", l.Variant.Color, l.Variant.Size, l.Variant.Stock))
			}
			total += l.LineTotal()
		}

		order, err := r.Orders().Create(ctx, model.Order{
			UserID:        p.UserID,
			AddressID:     addr.ID,
			Status:        model.OrderStatusPending,
			PaymentMethod: model.PaymentMethodCOD,
			PaymentStatus: model.PaymentStatusUnpaid,
			TotalAmount:   total,
		})
		if err != nil {
			return err
		}

		//単価は注文時点の価格で固定
		items := make([]model.OrderItem, 0, len(lines))
		for _, l := range lines {
			items = append(items, model.OrderItem{
				VariantID:   l.Variant.ID,
				Quantity:    l.Item.Quantity,
				Price:       l.SellingPrice,
				ProductName: l.ProductName,
				Size:        l.Variant.Size,
				Color:       l.Variant.Color,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, order.ID, items); err != nil {
			return err
		}

		//在庫減算（足りないなら false）
		for _, l := range lines {
			ok, err := r.Inventory().DecrementStockIfEnough(ctx, l.Variant.ID, l.Item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return errStockRaced
			}
		}

		cleared, err := r.Carts().ClearItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		if cleared != int64(len(lines)) {
			return errCartChanged
		}

		placed = order
		itemCount = len(items)
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return PlaceOrderOutput{}, err
		}
		u.log.Warn("checkout: transaction rolled back", zap.String("user_id", p.UserID), zap.Error(err))
		return PlaceOrderOutput{}, NewError(ErrOrderPlacementFailed, "Failed to place order, please try again")
	}

	span.SetAttributes(
		attribute.String("order.id", placed.ID),
		attribute.Int64("order.total_amount", placed.TotalAmount),
	)
	u.metrics.OrdersPlaced.Inc()
	u.log.Info("order placed",
		zap.String("order_id", placed.ID),
		zap.String("user_id", p.UserID),
		zap.Int64("total_amount", placed.TotalAmount),
		zap.Int("items", itemCount),
	)

	u.publish(ctx, placed.ID, messaging.OrderPlacedEvent{
		Type:        messaging.EventOrderPlaced,
		OrderID:     placed.ID,
		UserID:      placed.UserID,
		TotalAmount: placed.TotalAmount,
		ItemCount:   itemCount,
		OccurredAt:  u.clock.Now(),
	})

	return PlaceOrderOutput{OrderID: placed.ID}, nil
}

func (u *OrderUsecase) publish(ctx context.Context, key string, event any) {
	if u.events == nil {
		return
	}
	if err := u.events.Publish(ctx, key, event); err != nil {
		u.log.Warn("publish order event", zap.String("order_id", key), zap.Error(err))
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidAddress):
		return "invalid_address"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrCheckoutInProgress):
		return "in_progress"
	case errors.Is(err, ErrOrderPlacementFailed):
		return "placement_failed"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal"
	}
}

// 自分の注文一覧（新しい順）
func (u *OrderUsecase) ListMyOrders(ctx context.Context, p Principal, page, limit int) (Page[model.Order], error) {
	if p.UserID == "" {
		return Page[model.Order]{}, NewError(ErrUnauthorized, "Unauthorized")
	}
	page, limit = normalizePage(page, limit, defaultPageLimit)

	orders, total, err := u.orders.ListByUserID(ctx, p.UserID, page, limit)
	if err != nil {
		u.log.Error("list orders", zap.String("user_id", p.UserID), zap.Error(err))
		return Page[model.Order]{}, internalError()
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return newPage(orders, total, page, limit), nil
}

// 他人の注文は「存在しない扱い」にする
func (u *OrderUsecase) GetMyOrder(ctx context.Context, p Principal, orderID string) (OrderDetail, error) {
	if p.UserID == "" {
		return OrderDetail{}, NewError(ErrUnauthorized, "Unauthorized")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && o.UserID != p.UserID) {
		return OrderDetail{}, NewError(ErrOrderNotFound, "Order not found")
	}
	if err != nil {
		u.log.Error("get order", zap.String("order_id", orderID), zap.Error(err))
		return OrderDetail{}, internalError()
	}

	items, err := u.orderItems.ListByOrderID(ctx, o.ID)
	if err != nil {
		u.log.Error("list order items", zap.String("order_id", orderID), zap.Error(err))
		return OrderDetail{}, internalError()
	}

	detail := OrderDetail{Order: o, Items: items}
	if addr, err := u.addresses.FindByID(ctx, o.AddressID); err == nil {
		detail.Address = &addr
	}
	return detail, nil
}

// 顧客キャンセル。PENDINGのときだけ
func (u *OrderUsecase) CancelMyOrder(ctx context.Context, p Principal, orderID string) (model.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderUsecase.CancelMyOrder")
	defer span.End()

	if p.UserID == "" {
		return model.Order{}, NewError(ErrUnauthorized, "Unauthorized")
	}

	var res transitionResult
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		res, err = applyTransition(ctx, r, transitionRequest{
			ActorUserID: p.UserID,
			OrderID:     orderID,
			To:          model.OrderStatusCancelled,
			Check: func(o model.Order) error {
				if o.UserID != p.UserID {
					return NewError(ErrOrderNotFound, "Order not found")
				}
				if o.Status != model.OrderStatusPending {
					return NewError(ErrInvalidTransition, "Only pending orders can be cancelled")
				}
				return nil
			},
		})
		return err
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return model.Order{}, err
		}
		u.log.Error("cancel order", zap.String("order_id", orderID), zap.Error(err))
		return model.Order{}, internalError()
	}

	u.metrics.OrderTransitions.WithLabelValues(string(res.From), string(res.Order.Status)).Inc()
	u.log.Info("order cancelled by customer", zap.String("order_id", orderID), zap.String("user_id", p.UserID))
	u.publish(ctx, orderID, messaging.OrderStatusChangedEvent{
		Type:        messaging.EventOrderStatusChanged,
		OrderID:     orderID,
		From:        string(res.From),
		To:          string(res.Order.Status),
		ActorUserID: p.UserID,
		OccurredAt:  u.clock.Now(),
	})
	return res.Order, nil
}
