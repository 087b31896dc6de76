package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// ユーザーのカートを取得し、無ければ作成
func (r *CartGormRepository) GetOrCreateByUserID(ctx context.Context, userID string) (model.Cart, error) {
	var cart model.Cart

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&cart).Error
		if findErr == nil {
			return nil
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		// 無ければ作る
		// 一意制約違反でtx全体がabortしないようsavepointで作る
		newCart := model.Cart{UserID: userID}
		if err := tx.Transaction(func(sp *gorm.DB) error {
			return sp.Create(&newCart).Error
		}); err != nil {
			//同時作成に負けたら読み直す
			if retryErr := tx.Where("user_id = ?", userID).First(&cart).Error; retryErr == nil {
				return nil
			}
			return err
		}
		cart = newCart
		return nil
	})
	if err != nil {
		return model.Cart{}, translateErr(err)
	}
	return cart, nil
}

func (r *CartGormRepository) FindByUserID(ctx context.Context, userID string) (model.Cart, error) {
	var cart model.Cart
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return model.Cart{}, translateErr(err)
	}
	return cart, nil
}

// カート行をSELECT ... FOR UPDATEで読む
func (r *CartGormRepository) LockByUserID(ctx context.Context, userID string) (model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return model.Cart{}, translateErr(err)
	}
	return cart, nil
}

// 指定カートの明細を全削除
func (r *CartGormRepository) ClearItems(ctx context.Context, cartID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.CartItem{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

type cartLineRow struct {
	ItemID       string
	CartID       string
	VariantID    string
	Quantity     int64
	ProductID    string
	Size         string
	Color        string
	ColorHex     string
	Stock        int64
	ProductName  string
	ProductSlug  string
	SellingPrice int64
}

// 明細 + variant + 商品の現在価格を追加順で返す
func (r *CartGormRepository) ListLinesByCartID(ctx context.Context, cartID string) ([]model.CartLine, error) {
	var rows []cartLineRow
	err := r.db.WithContext(ctx).
		Table("cart_items").
		Select(`cart_items.id AS item_id, cart_items.cart_id, cart_items.variant_id, cart_items.quantity,
			product_variants.product_id, product_variants.size, product_variants.color,
			product_variants.color_hex, product_variants.stock,
			products.name AS product_name, products.slug AS product_slug, products.selling_price`).
		Joins("JOIN product_variants ON product_variants.id = cart_items.variant_id").
		Joins("JOIN products ON products.id = product_variants.product_id").
		Where("cart_items.cart_id = ?", cartID).
		Order("cart_items.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	lines := make([]model.CartLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, model.CartLine{
			Item: model.CartItem{
				ID:        row.ItemID,
				CartID:    row.CartID,
				VariantID: row.VariantID,
				Quantity:  row.Quantity,
			},
			Variant: model.ProductVariant{
				ID:        row.VariantID,
				ProductID: row.ProductID,
				Size:      row.Size,
				Color:     row.Color,
				ColorHex:  row.ColorHex,
				Stock:     row.Stock,
			},
			ProductName:  row.ProductName,
			ProductSlug:  row.ProductSlug,
			SellingPrice: row.SellingPrice,
		})
	}
	return lines, nil
}

// 同一variantは数量加算
func (r *CartGormRepository) UpsertByCartAndVariant(ctx context.Context, cartID string, variantID string, addQty int64) (model.CartItem, error) {
	if addQty <= 0 {
		return model.CartItem{}, errors.New("invalid quantity")
	}

	var item model.CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("cart_id = ? AND variant_id = ?", cartID, variantID).
			First(&item).Error

		if err == nil {
			// 既存ありだったら数量を増やす
			item.Quantity += addQty
			res := tx.Model(&model.CartItem{}).
				Where("id = ?", item.ID).
				Update("quantity", item.Quantity)
			return affectedOrNotFound(res)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		//無い場合は新規作成
		item = model.CartItem{
			CartID:    cartID,
			VariantID: variantID,
			Quantity:  addQty,
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return model.CartItem{}, translateErr(err)
	}
	return item, nil
}

// 明細の数量を更新
func (r *CartGormRepository) UpdateQuantity(ctx context.Context, cartItemID string, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ?", cartItemID).
		Update("quantity", qty)
	return affectedOrNotFound(res)
}

func (r *CartGormRepository) DeleteByID(ctx context.Context, cartItemID string) error {
	res := r.db.WithContext(ctx).Where("id = ?", cartItemID).Delete(&model.CartItem{})
	return affectedOrNotFound(res)
}

func (r *CartGormRepository) FindByID(ctx context.Context, cartItemID string) (model.CartItem, error) {
	var item model.CartItem
	if err := r.db.WithContext(ctx).Where("id = ?", cartItemID).First(&item).Error; err != nil {
		return model.CartItem{}, translateErr(err)
	}
	return item, nil
}

//cartItemが、そのuserのカートに属しているかを判定

func (r *CartGormRepository) IsOwnedByUser(ctx context.Context, cartItemID string, userID string) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Table("cart_items").
		Joins("join carts on carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", cartItemID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
