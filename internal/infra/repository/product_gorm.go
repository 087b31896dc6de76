package repository

import (
	"context"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// ACTIVE商品のみを、検索/カテゴリ/ソート/ページング付きで返す。
func (r *ProductGormRepository) ListActive(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("status = ?", model.ProductStatusActive)

	// q 名前とブランドを対象
	if s := strings.ToLower(strings.TrimSpace(q.Q)); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ?", like, like)
	}
	if q.Category != "" {
		tx = tx.Where("category_slug = ?", q.Category)
	}

	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	//sort
	switch q.Sort {
	case "price_asc":
		tx = tx.Order("selling_price asc").Order("created_at desc")
	case "price_desc":
		tx = tx.Order("selling_price desc").Order("created_at desc")
	default:
		tx = tx.Order("created_at desc")
	}

	if err := tx.Offset(pageOffset(q.Page, q.Limit)).Limit(q.Limit).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}
	return products, total, nil
}

func (r *ProductGormRepository) ListActiveCategories(ctx context.Context) ([]model.CategorySummary, error) {
	var out []model.CategorySummary
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Select("category_slug AS slug, COUNT(*) AS product_count").
		Where("status = ? AND category_slug <> ''", model.ProductStatusActive).
		Group("category_slug").
		Order("category_slug asc").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProductGormRepository) FindBySlug(ctx context.Context, slug string) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("color asc").Order("size asc")
		}).
		Where("slug = ?", slug).
		First(&p).Error
	if err != nil {
		return model.Product{}, translateErr(err)
	}
	return p, nil
}

func (r *ProductGormRepository) FindByID(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return model.Product{}, translateErr(err)
	}
	return p, nil
}

func (r *ProductGormRepository) FindVariantByID(ctx context.Context, variantID string) (model.ProductVariant, error) {
	var v model.ProductVariant
	if err := r.db.WithContext(ctx).Where("id = ?", variantID).First(&v).Error; err != nil {
		return model.ProductVariant{}, translateErr(err)
	}
	return v, nil
}

// 商品とvariantsをまとめて作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, translateErr(err)
	}
	return p, nil
}
