package model

import (
	"time"

	"gorm.io/gorm"
)

// 1ユーザーにつき1つ。最初のカート追加で作られる
type Cart struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// (cart_id, variant_id) で一意。同じvariantは数量を加算する
type CartItem struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CartID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_cart_variant" json:"cartId"`
	VariantID string    `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_cart_variant" json:"variantId"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// カート明細 + variant + 親商品の現在価格（テーブルではない）
type CartLine struct {
	Item         CartItem
	Variant      ProductVariant
	ProductName  string
	ProductSlug  string
	SellingPrice int64
}

func (l CartLine) LineTotal() int64 {
	return l.SellingPrice * l.Item.Quantity
}
