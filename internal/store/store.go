// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/fuelstat/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for imported price records.
type Store struct {
	db *sql.DB
}

// Import describes one loaded source file.
type Import struct {
	ID         int64
	Source     string
	ImportedAt time.Time
	Rows       int
	Skipped    int
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS imports (
			id INTEGER PRIMARY KEY,
			source TEXT NOT NULL,
			imported_at TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			skipped INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY,
			import_id INTEGER NOT NULL,
			station_id TEXT NOT NULL,
			product TEXT NOT NULL,
			price REAL NOT NULL,
			collected_at TEXT NOT NULL,
			period TEXT NOT NULL,
			region TEXT NOT NULL,
			brand TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_records_period ON records(period);`,
		`CREATE INDEX IF NOT EXISTS idx_records_product ON records(product);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertImport stores an import and its records in one transaction.
func (s *Store) InsertImport(ctx context.Context, imp Import, records []model.Record) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if imp.ImportedAt.IsZero() {
		imp.ImportedAt = time.Now()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO imports (source, imported_at, row_count, skipped) VALUES (?, ?, ?, ?)`,
		imp.Source,
		imp.ImportedAt.UTC().Format(time.RFC3339Nano),
		len(records),
		imp.Skipped,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(records) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO records (import_id, station_id, product, price, collected_at, period, region, brand)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, r := range records {
			if _, err = stmt.ExecContext(ctx, id, r.StationID, r.Product, r.Price,
				r.Date.UTC().Format(time.RFC3339), r.Period, r.Region, r.Brand); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListRecords returns every stored record in insertion order.
func (s *Store) ListRecords(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT station_id, product, price, collected_at, period, region, brand
		 FROM records ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var records []model.Record
	for rows.Next() {
		var r model.Record
		var collectedAt string
		if err := rows.Scan(&r.StationID, &r.Product, &r.Price, &collectedAt, &r.Period, &r.Region, &r.Brand); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339, collectedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid collected_at %q: %w", collectedAt, err)
		}
		r.Date = parsed
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ListImports returns import history, oldest first.
func (s *Store) ListImports(ctx context.Context) ([]Import, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, imported_at, row_count, skipped FROM imports ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var imports []Import
	for rows.Next() {
		var imp Import
		var importedAt string
		if err := rows.Scan(&imp.ID, &imp.Source, &importedAt, &imp.Rows, &imp.Skipped); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, importedAt)
		if err != nil {
			return nil, err
		}
		imp.ImportedAt = parsed
		imports = append(imports, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return imports, nil
}

// CountRecords returns the number of stored records, optionally restricted to products.
func (s *Store) CountRecords(ctx context.Context, products ...string) (int, error) {
	query := `SELECT COUNT(*) FROM records`
	args := make([]any, 0, len(products))
	if len(products) > 0 {
		placeholders := make([]string, len(products))
		for i, p := range products {
			placeholders[i] = "?"
			args = append(args, p)
		}
		query += fmt.Sprintf(` WHERE product IN (%s)`, strings.Join(placeholders, ","))
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Clear removes all records and import history.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range []string{`DELETE FROM records`, `DELETE FROM imports`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
			return err
		}
	}
	return tx.Commit()
}
