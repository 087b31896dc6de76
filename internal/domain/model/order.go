package model

import (
	"time"

	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentMethodCOD PaymentMethod = "COD"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
	PaymentStatusPaid   PaymentStatus = "PAID"
)

// 注文ヘッダ。TotalAmountは注文確定時の金額で以後変わらない
type Order struct {
	ID            string        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string        `gorm:"type:uuid;not null;index" json:"userId"`
	AddressID     string        `gorm:"type:uuid;not null;index" json:"addressId"`
	Status        OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null" json:"paymentMethod"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null" json:"paymentStatus"`
	TotalAmount   int64         `gorm:"not null" json:"totalAmount"`

	//SHIPPED時に入る
	TrackingNumber *string `gorm:"type:varchar(100)" json:"trackingNumber"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// 注文明細。Priceは注文時点の単価
type OrderItem struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   string `gorm:"type:uuid;not null;index" json:"orderId"`
	VariantID string `gorm:"type:uuid;not null;index" json:"variantId"`
	Quantity  int64  `gorm:"not null" json:"quantity"`
	Price     int64  `gorm:"not null" json:"price"`

	//表示用スナップショット
	ProductName string `gorm:"type:varchar(255);not null" json:"productName"`
	Size        string `gorm:"type:varchar(10);not null" json:"size"`
	Color       string `gorm:"type:varchar(50);not null" json:"color"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
