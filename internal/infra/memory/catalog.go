package memory

import (
	"context"
	"sort"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type productRepo struct{ v view }

func (r *productRepo) ListActive(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var hits []model.Product
	err := r.v.do(func(st *state) error {
		s := strings.ToLower(strings.TrimSpace(q.Q))
		for _, p := range st.products {
			if p.Status != model.ProductStatusActive {
				continue
			}
			if q.Category != "" && p.CategorySlug != q.Category {
				continue
			}
			if s != "" && !strings.Contains(strings.ToLower(p.Name), s) && !strings.Contains(strings.ToLower(p.Brand), s) {
				continue
			}
			hits = append(hits, p)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(hits, func(i, j int) bool {
		switch q.Sort {
		case "price_asc":
			if hits[i].SellingPrice != hits[j].SellingPrice {
				return hits[i].SellingPrice < hits[j].SellingPrice
			}
		case "price_desc":
			if hits[i].SellingPrice != hits[j].SellingPrice {
				return hits[i].SellingPrice > hits[j].SellingPrice
			}
		}
		return hits[i].CreatedAt.After(hits[j].CreatedAt)
	})

	return paginate(hits, q.Page, q.Limit), int64(len(hits)), nil
}

func (r *productRepo) ListActiveCategories(ctx context.Context) ([]model.CategorySummary, error) {
	counts := map[string]int64{}
	err := r.v.do(func(st *state) error {
		for _, p := range st.products {
			if p.Status == model.ProductStatusActive && p.CategorySlug != "" {
				counts[p.CategorySlug]++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.CategorySummary, 0, len(counts))
	for slug, n := range counts {
		out = append(out, model.CategorySummary{Slug: slug, ProductCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func variantsOf(st *state, productID string) []model.ProductVariant {
	var out []model.ProductVariant
	for _, v := range st.variants {
		if v.ProductID == productID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Color != out[j].Color {
			return out[i].Color < out[j].Color
		}
		return out[i].Size < out[j].Size
	})
	return out
}

func (r *productRepo) FindBySlug(ctx context.Context, slug string) (model.Product, error) {
	var out model.Product
	err := r.v.do(func(st *state) error {
		for _, p := range st.products {
			if p.Slug == slug {
				out = p
				out.Variants = variantsOf(st, p.ID)
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return out, err
}

func (r *productRepo) FindByID(ctx context.Context, id string) (model.Product, error) {
	var out model.Product
	err := r.v.do(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return repo.ErrNotFound
		}
		out = p
		return nil
	})
	return out, err
}

func (r *productRepo) FindVariantByID(ctx context.Context, variantID string) (model.ProductVariant, error) {
	var out model.ProductVariant
	err := r.v.do(func(st *state) error {
		v, ok := st.variants[variantID]
		if !ok {
			return repo.ErrNotFound
		}
		out = v
		return nil
	})
	return out, err
}

func (r *productRepo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	err := r.v.do(func(st *state) error {
		for _, existing := range st.products {
			if existing.Slug == p.Slug {
				return repo.ErrDuplicate
			}
		}
		if p.ID == "" {
			p.ID = model.NewID()
		}
		if p.Status == "" {
			p.Status = model.ProductStatusDraft
		}
		now := r.v.now()
		p.CreatedAt, p.UpdatedAt = now, now

		variants := make([]model.ProductVariant, len(p.Variants))
		for i, v := range p.Variants {
			if v.ID == "" {
				v.ID = model.NewID()
			}
			v.ProductID = p.ID
			v.CreatedAt, v.UpdatedAt = now, now
			st.variants[v.ID] = v
			variants[i] = v
		}

		stored := p
		stored.Variants = nil
		st.products[p.ID] = stored
		p.Variants = variants
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

type inventoryRepo struct{ v view }

func (r *inventoryRepo) DecrementStockIfEnough(ctx context.Context, variantID string, qty int64) (bool, error) {
	_, ok, err := r.AdjustStock(ctx, variantID, -qty)
	return ok, err
}

func (r *inventoryRepo) AdjustStock(ctx context.Context, variantID string, delta int64) (int64, bool, error) {
	var after int64
	applied := false
	err := r.v.do(func(st *state) error {
		v, ok := st.variants[variantID]
		if !ok || v.Stock+delta < 0 {
			return nil
		}
		v.Stock += delta
		v.UpdatedAt = r.v.now()
		st.variants[variantID] = v
		after, applied = v.Stock, true
		return nil
	})
	return after, applied, err
}

func (r *inventoryRepo) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	return r.v.do(func(st *state) error {
		if adj.ID == "" {
			adj.ID = model.NewID()
		}
		adj.CreatedAt = r.v.now()
		st.adjustments = append(st.adjustments, adj)
		return nil
	})
}
