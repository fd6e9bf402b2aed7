package store

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	logx "github.com/retail-assistant/server/pkg/logger"
)

const baseSchema = `
CREATE TABLE IF NOT EXISTS products (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT,
	price REAL
);
CREATE TABLE IF NOT EXISTS orders (
	order_id TEXT PRIMARY KEY,
	product_id INTEGER NOT NULL REFERENCES products(id),
	user_id TEXT,
	status TEXT,
	date TEXT
);
CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_product_id ON orders(product_id);
`

type optionalColumn struct {
	table string
	name  string
	ddl   string
}

// optionalColumns are added on top of externally seeded tables when absent.
var optionalColumns = []optionalColumn{
	{table: "products", name: "is_returnable", ddl: "INTEGER DEFAULT 1"},
	{table: "products", name: "return_window_days", ddl: "INTEGER DEFAULT 7"},
	{table: "orders", name: "delivered_date", ddl: "TEXT"},
	{table: "orders", name: "cancellation_reason", ddl: "TEXT"},
	{table: "orders", name: "updated_at", ddl: "TEXT"},
}

// Migrate brings the schema to the shape the service reads. It is idempotent and
// runs once at startup, before any request is served.
func Migrate(ctx context.Context, db *bun.DB) error {
	if _, err := db.ExecContext(ctx, baseSchema); err != nil {
		return fmt.Errorf("create base schema: %w", err)
	}

	existing := map[string]map[string]bool{}
	for _, col := range optionalColumns {
		cols, ok := existing[col.table]
		if !ok {
			var err error
			cols, err = tableColumns(ctx, db, col.table)
			if err != nil {
				return err
			}
			existing[col.table] = cols
		}
		if cols[col.name] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", col.table, col.name, col.ddl)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s.%s: %w", col.table, col.name, err)
		}
		cols[col.name] = true
		logx.Info().Str("table", col.table).Str("column", col.name).Msg("Added missing column")
	}
	return nil
}

func tableColumns(ctx context.Context, db bun.IDB, table string) (map[string]bool, error) {
	var names []string
	if err := db.NewRaw("SELECT name FROM pragma_table_info(?)", table).Scan(ctx, &names); err != nil {
		return nil, fmt.Errorf("inspect %s columns: %w", table, err)
	}
	cols := make(map[string]bool, len(names))
	for _, n := range names {
		cols[n] = true
	}
	return cols, nil
}
