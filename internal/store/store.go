package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	errx "github.com/retail-assistant/server/internal/core/error"
)

// Store is the data access layer over the orders and products tables.
type Store struct {
	db *bun.DB
}

func New(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *bun.DB {
	return s.db
}

func (s *Store) selectOrders() *bun.SelectQuery {
	return s.db.NewSelect().
		TableExpr("orders AS o").
		Join("JOIN products AS p ON p.id = o.product_id").
		ColumnExpr("o.order_id, o.user_id, o.status, o.date, o.delivered_date, o.product_id").
		ColumnExpr("p.name AS product_name, p.is_returnable, p.return_window_days")
}

func newestFirst(q *bun.SelectQuery, limit int) *bun.SelectQuery {
	q = q.OrderExpr("date(o.date) DESC").OrderExpr("o.order_id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}

// OrderByID returns errx.ErrNotFound (wrapped) when the order does not exist.
func (s *Store) OrderByID(ctx context.Context, orderID string) (*OrderRow, error) {
	var row OrderRow
	err := s.selectOrders().
		Where("o.order_id = ?", strings.TrimSpace(orderID)).
		Limit(1).
		Scan(ctx, &row)
	if err != nil {
		return nil, errx.WrapStore(err)
	}
	return &row, nil
}

// OrdersByProductName matches product names case-insensitively by substring.
func (s *Store) OrdersByProductName(ctx context.Context, name string, limit int) ([]OrderRow, error) {
	rows := []OrderRow{}
	err := newestFirst(s.selectOrders(), limit).
		Where("LOWER(p.name) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(name))+"%").
		Scan(ctx, &rows)
	if err != nil {
		return nil, errx.WrapStore(err)
	}
	return rows, nil
}

// OrdersByProductNameForUser is OrdersByProductName scoped to one user.
func (s *Store) OrdersByProductNameForUser(ctx context.Context, name, userID string, limit int) ([]OrderRow, error) {
	rows := []OrderRow{}
	err := newestFirst(s.selectOrders(), limit).
		Where("LOWER(p.name) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(name))+"%").
		Where("o.user_id = ?", userID).
		Scan(ctx, &rows)
	if err != nil {
		return nil, errx.WrapStore(err)
	}
	return rows, nil
}

// OrdersByStatuses matches any of the given statuses case-insensitively.
func (s *Store) OrdersByStatuses(ctx context.Context, statuses []string, limit int) ([]OrderRow, error) {
	rows := []OrderRow{}
	if len(statuses) == 0 {
		return rows, nil
	}
	lowered := make([]string, len(statuses))
	for i, st := range statuses {
		lowered[i] = strings.ToLower(st)
	}
	err := newestFirst(s.selectOrders(), limit).
		Where("LOWER(o.status) IN (?)", bun.In(lowered)).
		Scan(ctx, &rows)
	if err != nil {
		return nil, errx.WrapStore(err)
	}
	return rows, nil
}

// OrdersByUser optionally filters by status when status is non-empty.
func (s *Store) OrdersByUser(ctx context.Context, userID, status string, limit int) ([]OrderRow, error) {
	rows := []OrderRow{}
	q := newestFirst(s.selectOrders(), limit).Where("o.user_id = ?", userID)
	if status != "" {
		q = q.Where("LOWER(o.status) = ?", strings.ToLower(status))
	}
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, errx.WrapStore(err)
	}
	return rows, nil
}

func (s *Store) AllOrders(ctx context.Context, limit int) ([]OrderRow, error) {
	rows := []OrderRow{}
	if err := newestFirst(s.selectOrders(), limit).Scan(ctx, &rows); err != nil {
		return nil, errx.WrapStore(err)
	}
	return rows, nil
}

// CancelOrder re-reads the order status inside a transaction and lets validate
// decide whether the transition is allowed. A nil validate result writes the
// cancellation; the update is guarded on the status read so a concurrent change
// surfaces as errx.ErrConflict.
func (s *Store) CancelOrder(ctx context.Context, orderID, reason string, now time.Time, validate func(status string) error) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var status string
		err := tx.NewSelect().
			TableExpr("orders").
			ColumnExpr("status").
			Where("order_id = ?", orderID).
			Limit(1).
			Scan(ctx, &status)
		if err != nil {
			return errx.WrapStore(err)
		}
		if err := validate(status); err != nil {
			return err
		}

		res, err := tx.NewUpdate().
			TableExpr("orders").
			Set("status = ?", "cancelled").
			Set("cancellation_reason = ?", reason).
			Set("updated_at = ?", now.UTC().Format(time.RFC3339)).
			Where("order_id = ?", orderID).
			Where("status = ?", status).
			Exec(ctx)
		if err != nil {
			return errx.WrapStore(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errx.WrapStore(err)
		}
		if n == 0 {
			return errx.WrapStore(fmt.Errorf("order %s changed concurrently: %w", orderID, errx.ErrConflict))
		}
		return nil
	})
}

// SearchProducts matches any term against name or category, then applies the
// price filter to the matches.
func (s *Store) SearchProducts(ctx context.Context, terms []string, filter PriceFilter, limit int) ([]Product, error) {
	rows := []Product{}
	q := s.db.NewSelect().Model(&rows)
	if len(terms) > 0 {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, t := range terms {
				like := "%" + strings.ToLower(t) + "%"
				q = q.WhereOr("LOWER(p.name) LIKE ? OR LOWER(p.category) LIKE ?", like, like)
			}
			return q
		})
	}
	q = applyPrice(q, filter).OrderExpr("p.price ASC").OrderExpr("p.id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, errx.WrapStore(err)
	}
	return rows, nil
}

func applyPrice(q *bun.SelectQuery, f PriceFilter) *bun.SelectQuery {
	switch f.Op {
	case "<":
		return q.Where("p.price < ?", f.High)
	case ">":
		return q.Where("p.price > ?", f.Low)
	case "between":
		return q.Where("p.price BETWEEN ? AND ?", f.Low, f.High)
	}
	return q
}

func (s *Store) ProductsByCategory(ctx context.Context, category string, limit int) ([]Product, error) {
	rows := []Product{}
	q := s.db.NewSelect().Model(&rows).
		Where("LOWER(p.category) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(category))+"%").
		OrderExpr("p.name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, errx.WrapStore(err)
	}
	return rows, nil
}

// ProductsByName prefers the shortest matching name, the closest match to a
// short user query.
func (s *Store) ProductsByName(ctx context.Context, name string, limit int) ([]Product, error) {
	rows := []Product{}
	q := s.db.NewSelect().Model(&rows).
		Where("LOWER(p.name) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(name))+"%").
		OrderExpr("LENGTH(p.name) ASC").
		OrderExpr("p.id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, errx.WrapStore(err)
	}
	return rows, nil
}

// ReplaceCatalog truncates both tables and bulk-inserts the given rows.
func (s *Store) ReplaceCatalog(ctx context.Context, products []Product, orders []Order) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*Order)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("clear orders: %w", err)
		}
		if _, err := tx.NewDelete().Model((*Product)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("clear products: %w", err)
		}
		if len(products) > 0 {
			if _, err := tx.NewInsert().Model(&products).Exec(ctx); err != nil {
				return fmt.Errorf("insert products: %w", err)
			}
		}
		if len(orders) > 0 {
			if _, err := tx.NewInsert().Model(&orders).Exec(ctx); err != nil {
				return fmt.Errorf("insert orders: %w", err)
			}
		}
		return nil
	})
}

// IsNotFound reports whether err came from a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, errx.ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
