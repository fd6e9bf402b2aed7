// Package seed loads the product catalog and order history from CSV files into
// the relational store. Columns are matched by header name, so extra columns
// are ignored and the optional policy columns may be omitted.
package seed

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/retail-assistant/server/internal/store"
	logx "github.com/retail-assistant/server/pkg/logger"
)

type Config struct {
	ProductsPath string `envconfig:"SEED_PRODUCTS_PATH" default:"data/products.csv"`
	OrdersPath   string `envconfig:"SEED_ORDERS_PATH" default:"data/orders.csv"`
}

// Catalog is the interface the loader writes through.
type Catalog interface {
	ReplaceCatalog(ctx context.Context, products []store.Product, orders []store.Order) error
}

type Counts struct {
	Products int
	Orders   int
}

// Load replaces the catalog with the contents of both files.
func Load(ctx context.Context, cat Catalog, cfg Config) (Counts, error) {
	products, err := readFile(cfg.ProductsPath, ReadProducts)
	if err != nil {
		return Counts{}, err
	}
	orders, err := readFile(cfg.OrdersPath, ReadOrders)
	if err != nil {
		return Counts{}, err
	}

	known := make(map[int64]bool, len(products))
	for _, p := range products {
		known[p.ID] = true
	}
	for _, o := range orders {
		if !known[o.ProductID] {
			return Counts{}, fmt.Errorf("order %s references unknown product %d", o.OrderID, o.ProductID)
		}
	}

	if err := cat.ReplaceCatalog(ctx, products, orders); err != nil {
		return Counts{}, fmt.Errorf("replace catalog: %w", err)
	}
	logx.Info().Int("products", len(products)).Int("orders", len(orders)).Msg("Catalog seeded")
	return Counts{Products: len(products), Orders: len(orders)}, nil
}

func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// ReadProducts parses rows with columns id (or product_id), name (or
// product_name), category, price and the optional is_returnable and
// return_window_days.
func ReadProducts(r io.Reader) ([]store.Product, error) {
	var out []store.Product
	err := eachRow(r, []string{"id|product_id", "name|product_name"}, func(line int, row record) error {
		id, err := row.integer("id|product_id")
		if err != nil {
			return lineErr(line, err)
		}
		p := store.Product{
			ID:       id,
			Name:     row.str("name|product_name"),
			Category: row.str("category"),
		}
		if p.Name == "" {
			return lineErr(line, errors.New("name is empty"))
		}
		if v := row.str("price"); v != "" {
			if p.Price, err = strconv.ParseFloat(v, 64); err != nil {
				return lineErr(line, fmt.Errorf("price %q: %w", v, err))
			}
		}
		if p.IsReturnable, err = row.nullBool("is_returnable"); err != nil {
			return lineErr(line, err)
		}
		if p.ReturnWindowDays, err = row.nullInt("return_window_days"); err != nil {
			return lineErr(line, err)
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

// ReadOrders parses rows with columns order_id, product_id, user_id, status,
// date (or order_date) and the optional delivered_date.
func ReadOrders(r io.Reader) ([]store.Order, error) {
	var out []store.Order
	err := eachRow(r, []string{"order_id", "product_id"}, func(line int, row record) error {
		pid, err := row.integer("product_id")
		if err != nil {
			return lineErr(line, err)
		}
		o := store.Order{
			OrderID:   row.str("order_id"),
			ProductID: pid,
			UserID:    row.str("user_id"),
			Status:    strings.ToLower(row.str("status")),
			Date:      row.str("date|order_date"),
		}
		if o.OrderID == "" {
			return lineErr(line, errors.New("order_id is empty"))
		}
		if d := row.str("delivered_date"); d != "" {
			o.DeliveredDate = sql.NullString{String: d, Valid: true}
		}
		out = append(out, o)
		return nil
	})
	return out, err
}

func lineErr(line int, err error) error {
	return fmt.Errorf("line %d: %w", line, err)
}

// record resolves values by header; a key "a|b" takes the first present column.
type record struct {
	header map[string]int
	values []string
}

func (r record) str(key string) string {
	for _, name := range strings.Split(key, "|") {
		if i, ok := r.header[name]; ok && i < len(r.values) {
			return strings.TrimSpace(r.values[i])
		}
	}
	return ""
}

func (r record) integer(key string) (int64, error) {
	v := r.str(key)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		// Spreadsheet exports may write integers as "1001.0".
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return 0, fmt.Errorf("%s %q is not an integer", key, v)
		}
		return int64(f), nil
	}
	return n, nil
}

func (r record) nullInt(key string) (sql.NullInt64, error) {
	if r.str(key) == "" {
		return sql.NullInt64{}, nil
	}
	n, err := r.integer(key)
	if err != nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: n, Valid: true}, nil
}

func (r record) nullBool(key string) (sql.NullBool, error) {
	switch strings.ToLower(r.str(key)) {
	case "":
		return sql.NullBool{}, nil
	case "1", "true", "yes", "y":
		return sql.NullBool{Bool: true, Valid: true}, nil
	case "0", "false", "no", "n":
		return sql.NullBool{Bool: false, Valid: true}, nil
	default:
		return sql.NullBool{}, fmt.Errorf("%s %q is not a boolean", key, r.str(key))
	}
}

func eachRow(r io.Reader, required []string, fn func(line int, row record) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("missing header row")
		}
		return err
	}
	header := make(map[string]int, len(head))
	for i, h := range head {
		header[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, key := range required {
		if !hasAny(header, key) {
			return fmt.Errorf("missing column %s", key)
		}
	}

	line := 1
	for {
		values, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return lineErr(line, err)
		}
		if len(values) == 1 && strings.TrimSpace(values[0]) == "" {
			continue
		}
		if err := fn(line, record{header: header, values: values}); err != nil {
			return err
		}
	}
}

func hasAny(header map[string]int, key string) bool {
	for _, name := range strings.Split(key, "|") {
		if _, ok := header[name]; ok {
			return true
		}
	}
	return false
}
