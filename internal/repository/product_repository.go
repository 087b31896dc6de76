package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	Category string
	//newest / price_asc / price_desc
	Sort string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	//ACTIVEのみ
	ListActive(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	//variants込み
	FindBySlug(ctx context.Context, slug string) (model.Product, error)
	FindByID(ctx context.Context, id string) (model.Product, error)
	FindVariantByID(ctx context.Context, variantID string) (model.ProductVariant, error)
	//ACTIVE商品のあるカテゴリをslug順で
	ListActiveCategories(ctx context.Context) ([]model.CategorySummary, error)

	//variantsも一緒に作る
	Create(ctx context.Context, p model.Product) (model.Product, error)
}
