package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/metrics"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// 管理者の商品登録・在庫調整。どちらも監査ログを同じTxで書く
type AdminInventoryUsecase struct {
	tx       repo.TransactionManager
	products repo.ProductRepository
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewAdminInventoryUsecase(
	tx repo.TransactionManager,
	products repo.ProductRepository,
	m *metrics.Metrics,
	log *zap.Logger,
) *AdminInventoryUsecase {
	return &AdminInventoryUsecase{
		tx:       tx,
		products: products,
		metrics:  m,
		log:      log,
	}
}

type VariantInput struct {
	Size     string
	Color    string
	ColorHex string
	Stock    int64
}

type CreateProductInput struct {
	Name         string
	Description  string
	Brand        string
	CategorySlug string
	BasePrice    int64
	SellingPrice int64
	Status       string
	Variants     []VariantInput
}

type AdjustStockInput struct {
	Delta  int64
	Reason string
}

type StockAdjustmentOutput struct {
	VariantID string `json:"variantId"`
	Delta     int64  `json:"delta"`
	Stock     int64  `json:"stock"`
}

var (
	slugStrip = regexp.MustCompile(`[^\w\s-]`)
	slugSpace = regexp.MustCompile(`[\s_]+`)
)

// "Classic Tee (Black)" -> "classic-tee-black"
func slugify(s string) string {
	s = strings.ToLower(s)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpace.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func (u *AdminInventoryUsecase) CreateProduct(ctx context.Context, p Principal, in CreateProductInput) (model.Product, error) {
	if err := requireAdmin(p); err != nil {
		return model.Product{}, err
	}

	name := strings.TrimSpace(in.Name)
	if len([]rune(name)) < 2 {
		return model.Product{}, validationError("Product name is required")
	}
	if in.BasePrice <= 0 {
		return model.Product{}, validationError("Base price must be positive")
	}
	if in.SellingPrice <= 0 {
		return model.Product{}, validationError("Selling price must be positive")
	}
	status := model.ProductStatusDraft
	if in.Status != "" {
		status = model.ProductStatus(in.Status)
		switch status {
		case model.ProductStatusDraft, model.ProductStatusActive, model.ProductStatusArchived:
		default:
			return model.Product{}, validationError("Invalid product status")
		}
	}
	slug := slugify(name)
	if slug == "" {
		return model.Product{}, validationError("Product name is required")
	}

	product := model.Product{
		Name:         name,
		Slug:         slug,
		Description:  strings.TrimSpace(in.Description),
		Brand:        strings.TrimSpace(in.Brand),
		CategorySlug: strings.TrimSpace(in.CategorySlug),
		BasePrice:    in.BasePrice,
		SellingPrice: in.SellingPrice,
		Status:       status,
	}
	if product.Brand == "" {
		product.Brand = "Shop"
	}
	for _, v := range in.Variants {
		size, color := strings.TrimSpace(v.Size), strings.TrimSpace(v.Color)
		if size == "" || color == "" {
			return model.Product{}, validationError("Variant size and color are required")
		}
		if v.Stock < 0 {
			return model.Product{}, validationError("Stock cannot be negative")
		}
		product.Variants = append(product.Variants, model.ProductVariant{
			Size:     size,
			Color:    color,
			ColorHex: strings.TrimSpace(v.ColorHex),
			Stock:    v.Stock,
		})
	}

	var created model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		created, err = r.Products().Create(ctx, product)
		if err != nil {
			return err
		}

		after, err := snapshotJSON(created)
		if err != nil {
			return err
		}
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  p.UserID,
			Action:       model.AuditActionCreateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   created.ID,
			AfterJSON:    after,
		})
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return model.Product{}, NewError(ErrConflict, "A product with this name already exists")
		}
		u.log.Error("create product", zap.String("slug", slug), zap.Error(err))
		return model.Product{}, internalError()
	}

	u.log.Info("product created",
		zap.String("product_id", created.ID),
		zap.String("admin_id", p.UserID),
		zap.Int("variants", len(created.Variants)),
	)
	return created, nil
}

// AdjustStock はチェックアウトと同じ「0未満にならない時だけ更新」で在庫を増減する
func (u *AdminInventoryUsecase) AdjustStock(ctx context.Context, p Principal, variantID string, in AdjustStockInput) (StockAdjustmentOutput, error) {
	ctx, span := tracer.Start(ctx, "AdminInventoryUsecase.AdjustStock")
	defer span.End()

	if err := requireAdmin(p); err != nil {
		return StockAdjustmentOutput{}, err
	}
	if in.Delta == 0 {
		return StockAdjustmentOutput{}, validationError("Delta must not be zero")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return StockAdjustmentOutput{}, validationError("Reason is required")
	}

	var out StockAdjustmentOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindVariantByID(ctx, variantID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(ErrNotFound, "Variant not found")
		}
		if err != nil {
			return err
		}

		stock, ok, err := r.Inventory().AdjustStock(ctx, variantID, in.Delta)
		if err != nil {
			return err
		}
		if !ok {
			return NewError(ErrInsufficientStock, "Stock cannot go below zero")
		}

		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			VariantID:   variantID,
			AdminUserID: p.UserID,
			Delta:       in.Delta,
			StockAfter:  stock,
			Reason:      reason,
		}); err != nil {
			return err
		}

		beforeJSON, err := snapshotJSON(map[string]int64{"stock": before.Stock})
		if err != nil {
			return err
		}
		afterJSON, err := snapshotJSON(map[string]int64{"stock": stock})
		if err != nil {
			return err
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  p.UserID,
			Action:       model.AuditActionAdjustStock,
			ResourceType: model.AuditResourceVariant,
			ResourceID:   variantID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    afterJSON,
		}); err != nil {
			return err
		}

		out = StockAdjustmentOutput{VariantID: variantID, Delta: in.Delta, Stock: stock}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return StockAdjustmentOutput{}, err
		}
		u.log.Error("adjust stock", zap.String("variant_id", variantID), zap.Error(err))
		return StockAdjustmentOutput{}, internalError()
	}

	u.metrics.StockAdjustments.Inc()
	u.log.Info("stock adjusted",
		zap.String("variant_id", variantID),
		zap.Int64("delta", in.Delta),
		zap.Int64("stock", out.Stock),
		zap.String("admin_id", p.UserID),
	)
	return out, nil
}
