package memory

import (
	"context"
	"sort"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type orderRepo struct{ v view }

func (r *orderRepo) Create(ctx context.Context, order model.Order) (model.Order, error) {
	err := r.v.do(func(st *state) error {
		if order.ID == "" {
			order.ID = model.NewID()
		}
		order.Items = nil
		now := r.v.now()
		order.CreatedAt, order.UpdatedAt = now, now
		st.orders[order.ID] = order
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}
	return order, nil
}

func (r *orderRepo) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	var out model.Order
	err := r.v.do(func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return repo.ErrNotFound
		}
		out = o
		return nil
	})
	return out, err
}

func newestFirst(orders []model.Order) {
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
}

func (r *orderRepo) ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error) {
	var hits []model.Order
	err := r.v.do(func(st *state) error {
		for _, o := range st.orders {
			if o.UserID == userID {
				hits = append(hits, o)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	newestFirst(hits)
	return paginate(hits, page, limit), int64(len(hits)), nil
}

func (r *orderRepo) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	var hits []model.Order
	err := r.v.do(func(st *state) error {
		s := strings.ToLower(strings.TrimSpace(f.Search))
		for _, o := range st.orders {
			if f.Status != "" && string(o.Status) != f.Status {
				continue
			}
			if s != "" {
				email := strings.ToLower(st.users[o.UserID].Email)
				if !strings.Contains(strings.ToLower(o.ID), s) && !strings.Contains(email, s) {
					continue
				}
			}
			hits = append(hits, o)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	newestFirst(hits)
	return paginate(hits, f.Page, f.Limit), int64(len(hits)), nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, orderID string, from, to model.OrderStatus, trackingNumber *string) error {
	return r.v.do(func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok || o.Status != from {
			return repo.ErrConflict
		}
		o.Status = to
		if trackingNumber != nil {
			tn := *trackingNumber
			o.TrackingNumber = &tn
		}
		o.UpdatedAt = r.v.now()
		st.orders[orderID] = o
		return nil
	})
}

type orderItemRepo struct{ v view }

func (r *orderItemRepo) CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error {
	return r.v.do(func(st *state) error {
		for _, it := range items {
			if it.ID == "" {
				it.ID = model.NewID()
			}
			it.OrderID = orderID
			it.CreatedAt = r.v.now()
			st.orderItems[it.ID] = it
		}
		return nil
	})
}

func (r *orderItemRepo) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	out := []model.OrderItem{}
	err := r.v.do(func(st *state) error {
		for _, it := range st.orderItems {
			if it.OrderID == orderID {
				out = append(out, it)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

type auditLogRepo struct{ v view }

func (r *auditLogRepo) Create(ctx context.Context, log model.AuditLog) error {
	return r.v.do(func(st *state) error {
		if log.ID == "" {
			log.ID = model.NewID()
		}
		log.CreatedAt = r.v.now()
		st.auditLogs = append(st.auditLogs, log)
		return nil
	})
}

func (r *auditLogRepo) ListByResource(ctx context.Context, resourceType model.AuditResourceType, resourceID string) ([]model.AuditLog, error) {
	out := []model.AuditLog{}
	err := r.v.do(func(st *state) error {
		for _, l := range st.auditLogs {
			if l.ResourceType == resourceType && l.ResourceID == resourceID {
				out = append(out, l)
			}
		}
		return nil
	})
	return out, err
}
