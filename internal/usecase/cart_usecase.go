package usecase

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// CartUsecase は /cart の業務ロジック。
// 価格はカートに持たず、表示のたびに商品の現在価格を読む
type CartUsecase struct {
	tx        repo.TransactionManager
	carts     repo.CartRepository
	cartItems repo.CartItemRepository
	log       *zap.Logger
}

func NewCartUsecase(
	tx repo.TransactionManager,
	carts repo.CartRepository,
	cartItems repo.CartItemRepository,
	log *zap.Logger,
) *CartUsecase {
	return &CartUsecase{
		tx:        tx,
		carts:     carts,
		cartItems: cartItems,
		log:       log,
	}
}

type CartProduct struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	SellingPrice int64  `json:"sellingPrice"`
}

type CartLineView struct {
	ID        string               `json:"id"`
	Quantity  int64                `json:"quantity"`
	Variant   model.ProductVariant `json:"variant"`
	Product   CartProduct          `json:"product"`
	LineTotal int64                `json:"lineTotal"`
}

type CartView struct {
	Items     []CartLineView `json:"items"`
	ItemCount int64          `json:"itemCount"`
	Subtotal  int64          `json:"subtotal"`
}

type AddCartItemInput struct {
	VariantID string
	Quantity  int64
}

func toCartView(lines []model.CartLine) CartView {
	out := CartView{Items: make([]CartLineView, 0, len(lines))}
	for _, l := range lines {
		out.Items = append(out.Items, CartLineView{
			ID:       l.Item.ID,
			Quantity: l.Item.Quantity,
			Variant:  l.Variant,
			Product: CartProduct{
				ID:           l.Variant.ProductID,
				Name:         l.ProductName,
				Slug:         l.ProductSlug,
				SellingPrice: l.SellingPrice,
			},
			LineTotal: l.LineTotal(),
		})
		out.ItemCount += l.Item.Quantity
		out.Subtotal += l.LineTotal()
	}
	return out
}

// カートが無ければ空を返す（作らない）
func (u *CartUsecase) GetCart(ctx context.Context, p Principal) (CartView, error) {
	if p.UserID == "" {
		return CartView{}, NewError(ErrUnauthorized, "Unauthorized")
	}

	cart, err := u.carts.FindByUserID(ctx, p.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return toCartView(nil), nil
	}
	if err != nil {
		u.log.Error("get cart", zap.String("user_id", p.UserID), zap.Error(err))
		return CartView{}, internalError()
	}

	lines, err := u.cartItems.ListLinesByCartID(ctx, cart.ID)
	if err != nil {
		u.log.Error("list cart lines", zap.String("cart_id", cart.ID), zap.Error(err))
		return CartView{}, internalError()
	}
	return toCartView(lines), nil
}

// AddItem はカートに追加（同一variantは数量加算）。
// 加算後の数量が在庫を超えるならロールバック
func (u *CartUsecase) AddItem(ctx context.Context, p Principal, in AddCartItemInput) (model.CartItem, error) {
	if p.UserID == "" {
		return model.CartItem{}, NewError(ErrUnauthorized, "Unauthorized")
	}
	if in.VariantID == "" {
		return model.CartItem{}, validationError("Variant ID is required")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 {
		return model.CartItem{}, validationError("Quantity must be at least 1")
	}

	var item model.CartItem
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		variant, err := r.Products().FindVariantByID(ctx, in.VariantID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(ErrNotFound, "Variant not found")
		}
		if err != nil {
			return err
		}
		if variant.Stock < in.Quantity {
			return NewError(ErrInsufficientStock, "Not enough stock available")
		}

		cart, err := r.Carts().GetOrCreateByUserID(ctx, p.UserID)
		if err != nil {
			return err
		}

		item, err = r.CartItems().UpsertByCartAndVariant(ctx, cart.ID, variant.ID, in.Quantity)
		if err != nil {
			return err
		}
		if item.Quantity > variant.Stock {
			return NewError(ErrInsufficientStock, "Not enough stock available")
		}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return model.CartItem{}, err
		}
		u.log.Error("add cart item", zap.String("user_id", p.UserID), zap.Error(err))
		return model.CartItem{}, internalError()
	}
	return item, nil
}

// 他人の明細は存在しない扱い
func (u *CartUsecase) UpdateItem(ctx context.Context, p Principal, itemID string, quantity int64) error {
	if p.UserID == "" {
		return NewError(ErrUnauthorized, "Unauthorized")
	}
	if quantity < 1 {
		return validationError("Quantity must be at least 1")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		owned, err := r.CartItems().IsOwnedByUser(ctx, itemID, p.UserID)
		if err != nil {
			return err
		}
		if !owned {
			return NewError(ErrNotFound, "Cart item not found")
		}

		item, err := r.CartItems().FindByID(ctx, itemID)
		if err != nil {
			return err
		}
		variant, err := r.Products().FindVariantByID(ctx, item.VariantID)
		if err != nil {
			return err
		}
		if quantity > variant.Stock {
			return NewError(ErrInsufficientStock, "Not enough stock available")
		}
		return r.CartItems().UpdateQuantity(ctx, itemID, quantity)
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return err
		}
		u.log.Error("update cart item", zap.String("item_id", itemID), zap.Error(err))
		return internalError()
	}
	return nil
}

func (u *CartUsecase) RemoveItem(ctx context.Context, p Principal, itemID string) error {
	if p.UserID == "" {
		return NewError(ErrUnauthorized, "Unauthorized")
	}

	owned, err := u.cartItems.IsOwnedByUser(ctx, itemID, p.UserID)
	if err != nil {
		u.log.Error("remove cart item", zap.String("item_id", itemID), zap.Error(err))
		return internalError()
	}
	if !owned {
		return NewError(ErrNotFound, "Cart item not found")
	}

	if err := u.cartItems.DeleteByID(ctx, itemID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(ErrNotFound, "Cart item not found")
		}
		u.log.Error("remove cart item", zap.String("item_id", itemID), zap.Error(err))
		return internalError()
	}
	return nil
}
