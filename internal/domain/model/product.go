package model

import (
	"time"

	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "DRAFT"
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusArchived ProductStatus = "ARCHIVED"
)

// 価格は最小通貨単位（paise）で持つ
type Product struct {
	ID           string        `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string        `gorm:"type:varchar(255);not null" json:"name"`
	Slug         string        `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Description  string        `gorm:"type:text" json:"description"`
	Brand        string        `gorm:"type:varchar(255)" json:"brand"`
	CategorySlug string        `gorm:"type:varchar(100);index" json:"categorySlug"`
	BasePrice    int64         `gorm:"not null" json:"basePrice"`
	SellingPrice int64         `gorm:"not null" json:"sellingPrice"`
	Status       ProductStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// カテゴリごとの公開商品数
type CategorySummary struct {
	Slug         string `json:"slug"`
	ProductCount int64  `json:"productCount"`
}

// サイズ×カラーの購入単位。在庫はここで管理する
// 価格は持たない（注文時に親Productのselling_priceを読む）
type ProductVariant struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID string `gorm:"type:uuid;not null;index" json:"productId"`
	Size      string `gorm:"type:varchar(10);not null" json:"size"`
	Color     string `gorm:"type:varchar(50);not null" json:"color"`
	ColorHex  string `gorm:"type:varchar(7)" json:"colorHex"`

	//マイナス禁止
	Stock int64 `gorm:"not null;default:0;check:stock >= 0" json:"stock"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// 在庫メッセージ用の表示名（例: "Black M"）
func (v ProductVariant) Label() string {
	return v.Color + " " + v.Size
}
