package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type cartRepo struct{ v view }

func (r *cartRepo) GetOrCreateByUserID(ctx context.Context, userID string) (model.Cart, error) {
	var out model.Cart
	err := r.v.do(func(st *state) error {
		for _, c := range st.carts {
			if c.UserID == userID {
				out = c
				return nil
			}
		}
		now := r.v.now()
		out = model.Cart{ID: model.NewID(), UserID: userID, CreatedAt: now, UpdatedAt: now}
		st.carts[out.ID] = out
		return nil
	})
	return out, err
}

func (r *cartRepo) FindByUserID(ctx context.Context, userID string) (model.Cart, error) {
	var out model.Cart
	err := r.v.do(func(st *state) error {
		for _, c := range st.carts {
			if c.UserID == userID {
				out = c
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return out, err
}

// WithinTxがStore全体を握っているので、読むだけでロックになる
func (r *cartRepo) LockByUserID(ctx context.Context, userID string) (model.Cart, error) {
	return r.FindByUserID(ctx, userID)
}

func (r *cartRepo) ClearItems(ctx context.Context, cartID string) (int64, error) {
	var n int64
	err := r.v.do(func(st *state) error {
		for id, it := range st.cartItems {
			if it.CartID == cartID {
				delete(st.cartItems, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

type cartItemRepo struct{ v view }

func (r *cartItemRepo) ListLinesByCartID(ctx context.Context, cartID string) ([]model.CartLine, error) {
	var items []model.CartItem
	lines := []model.CartLine{}
	err := r.v.do(func(st *state) error {
		for _, it := range st.cartItems {
			if it.CartID == cartID {
				items = append(items, it)
			}
		}
		sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })

		//gormの外部キーと同じく、参照切れの明細は黙って落とさない
		for _, it := range items {
			v, ok := st.variants[it.VariantID]
			if !ok {
				return fmt.Errorf("cart item %s: variant %s: %w", it.ID, it.VariantID, repo.ErrNotFound)
			}
			p, ok := st.products[v.ProductID]
			if !ok {
				return fmt.Errorf("cart item %s: product %s: %w", it.ID, v.ProductID, repo.ErrNotFound)
			}
			lines = append(lines, model.CartLine{
				Item:         it,
				Variant:      v,
				ProductName:  p.Name,
				ProductSlug:  p.Slug,
				SellingPrice: p.SellingPrice,
			})
		}
		return nil
	})
	return lines, err
}

func (r *cartItemRepo) UpsertByCartAndVariant(ctx context.Context, cartID string, variantID string, addQty int64) (model.CartItem, error) {
	if addQty <= 0 {
		return model.CartItem{}, errors.New("invalid quantity")
	}
	var out model.CartItem
	err := r.v.do(func(st *state) error {
		now := r.v.now()
		for id, it := range st.cartItems {
			if it.CartID == cartID && it.VariantID == variantID {
				it.Quantity += addQty
				it.UpdatedAt = now
				st.cartItems[id] = it
				out = it
				return nil
			}
		}
		out = model.CartItem{
			ID:        model.NewID(),
			CartID:    cartID,
			VariantID: variantID,
			Quantity:  addQty,
			CreatedAt: now,
			UpdatedAt: now,
		}
		st.cartItems[out.ID] = out
		return nil
	})
	return out, err
}

func (r *cartItemRepo) UpdateQuantity(ctx context.Context, cartItemID string, qty int64) error {
	return r.v.do(func(st *state) error {
		it, ok := st.cartItems[cartItemID]
		if !ok {
			return repo.ErrNotFound
		}
		it.Quantity = qty
		it.UpdatedAt = r.v.now()
		st.cartItems[cartItemID] = it
		return nil
	})
}

func (r *cartItemRepo) DeleteByID(ctx context.Context, cartItemID string) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.cartItems[cartItemID]; !ok {
			return repo.ErrNotFound
		}
		delete(st.cartItems, cartItemID)
		return nil
	})
}

func (r *cartItemRepo) FindByID(ctx context.Context, cartItemID string) (model.CartItem, error) {
	var out model.CartItem
	err := r.v.do(func(st *state) error {
		it, ok := st.cartItems[cartItemID]
		if !ok {
			return repo.ErrNotFound
		}
		out = it
		return nil
	})
	return out, err
}

func (r *cartItemRepo) IsOwnedByUser(ctx context.Context, cartItemID string, userID string) (bool, error) {
	owned := false
	err := r.v.do(func(st *state) error {
		it, ok := st.cartItems[cartItemID]
		if !ok {
			return nil
		}
		c, ok := st.carts[it.CartID]
		owned = ok && c.UserID == userID
		return nil
	})
	return owned, err
}
