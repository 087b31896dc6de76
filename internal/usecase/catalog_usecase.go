package usecase

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// 公開カタログ（ACTIVEの商品だけ見せる）
type CatalogUsecase struct {
	products repo.ProductRepository
	log      *zap.Logger
}

func NewCatalogUsecase(products repo.ProductRepository, log *zap.Logger) *CatalogUsecase {
	return &CatalogUsecase{products: products, log: log}
}

type ProductListInput struct {
	Page     int
	Limit    int
	Q        string
	Category string
	Sort     string
}

var productSorts = map[string]bool{"": true, "newest": true, "price_asc": true, "price_desc": true}

func (u *CatalogUsecase) List(ctx context.Context, in ProductListInput) (Page[model.Product], error) {
	if !productSorts[in.Sort] {
		return Page[model.Product]{}, validationError("Invalid sort")
	}
	page, limit := normalizePage(in.Page, in.Limit, defaultPageLimit)

	items, total, err := u.products.ListActive(ctx, repo.ProductListQuery{
		Page:     page,
		Limit:    limit,
		Q:        strings.TrimSpace(in.Q),
		Category: strings.TrimSpace(in.Category),
		Sort:     in.Sort,
	})
	if err != nil {
		u.log.Error("list products", zap.Error(err))
		return Page[model.Product]{}, internalError()
	}
	if items == nil {
		items = []model.Product{}
	}
	return newPage(items, total, page, limit), nil
}

func (u *CatalogUsecase) GetBySlug(ctx context.Context, slug string) (model.Product, error) {
	p, err := u.products.FindBySlug(ctx, slug)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && p.Status != model.ProductStatusActive) {
		return model.Product{}, NewError(ErrNotFound, "Product not found")
	}
	if err != nil {
		u.log.Error("get product", zap.String("slug", slug), zap.Error(err))
		return model.Product{}, internalError()
	}
	return p, nil
}

// 公開商品が1つ以上あるカテゴリだけ返す
func (u *CatalogUsecase) Categories(ctx context.Context) ([]model.CategorySummary, error) {
	out, err := u.products.ListActiveCategories(ctx)
	if err != nil {
		u.log.Error("list categories", zap.Error(err))
		return nil, internalError()
	}
	if out == nil {
		out = []model.CategorySummary{}
	}
	return out, nil
}
