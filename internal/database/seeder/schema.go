package seeder

import (
	"context"
	"fmt"

	"cv-hub/internal/database"
)

// EnsureTableColumns fails when table lacks any of columns, which means migrations have not run.
func EnsureTableColumns(ctx context.Context, db database.DB, table string, columns ...string) error {
	if db == nil {
		return fmt.Errorf("nil db")
	}
	if table == "" {
		return fmt.Errorf("empty table")
	}
	for _, col := range columns {
		if col == "" {
			return fmt.Errorf("empty column")
		}
	}

	query := `SELECT column_name FROM information_schema.columns WHERE table_schema = 'public' AND table_name = ?`
	if db.Dialect() == database.DialectSQLite {
		query = `SELECT name FROM pragma_table_info(?)`
	}

	rows, err := db.Query(ctx, query, table)
	if err != nil {
		return err
	}
	defer rows.Close()

	existing := map[string]struct{}{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, col := range columns {
		if _, ok := existing[col]; !ok {
			return fmt.Errorf("schema mismatch: missing column %s.%s", table, col)
		}
	}
	return nil
}
