package messaging

import "time"

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// 注文確定後に送る
type OrderPlacedEvent struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	TotalAmount int64     `json:"total_amount"`
	ItemCount   int       `json:"item_count"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// 管理者・顧客によるステータス変更後に送る
type OrderStatusChangedEvent struct {
	Type           string    `json:"type"`
	OrderID        string    `json:"order_id"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	TrackingNumber *string   `json:"tracking_number,omitempty"`
	ActorUserID    string    `json:"actor_user_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}
