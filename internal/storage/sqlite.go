package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"

	apperrors "pivotcli/internal/errors"
	"pivotcli/internal/exporter"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Store is a single connection to one database file.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens or creates the database file at path and verifies it can be
// reached. Callers must Close the store.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open database %s", path), err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError(fmt.Sprintf("database %s is not accessible", path), err).
			WithContext("path", path)
	}

	return &Store{
		db:     db,
		path:   path,
		logger: slog.Default().With(slog.String("component", "storage")),
	}, nil
}

// Close releases the connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return apperrors.NewStorageError("failed to close database", err)
	}
	return nil
}

// ReplaceTable drops any table called name and recreates it with the content
// of table. Nothing changes if any statement fails.
func (s *Store) ReplaceTable(ctx context.Context, name string, table *exporter.FormattedTable) (err error) {
	header := table.Header()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Warn("Rollback failed", slog.String("error", rbErr.Error()))
			}
		}
	}()

	stmts := []string{
		"DROP TABLE IF EXISTS " + quoteIdent(name),
		createTableSQL(name, header),
		fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
			quoteIdent("ix_"+name+"_"+table.Index), quoteIdent(name), quoteIdent(table.Index)),
	}
	for _, stmt := range stmts {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to prepare table %s", name), err).
				WithContext("statement", stmt)
		}
	}

	insert, err := tx.PrepareContext(ctx, insertSQL(name, header))
	if err != nil {
		return apperrors.NewStorageError("failed to prepare insert", err)
	}
	defer insert.Close()

	args := make([]any, len(header))
	for i, row := range table.Rows {
		if len(row.Cells) != len(table.Columns) {
			err = apperrors.NewStorageError(
				fmt.Sprintf("row %d has %d cells, want %d", i, len(row.Cells), len(table.Columns)), nil)
			return err
		}
		args[0] = row.Key
		for j, c := range row.Cells {
			args[j+1] = c
		}
		if _, err = insert.ExecContext(ctx, args...); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to insert row %d", i), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return apperrors.NewStorageError("failed to commit", err)
	}

	s.logger.InfoContext(ctx, "Table replaced",
		slog.String("path", s.path),
		slog.String("table", name),
		slog.Int("rows", len(table.Rows)),
		slog.Int("columns", len(header)))
	return nil
}

// ReadTable returns the rows of name in insertion order. The first column is
// treated as the index.
func (s *Store) ReadTable(ctx context.Context, name string) (*exporter.FormattedTable, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", quoteIdent(name)))
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to read table %s", name), err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read columns", err)
	}
	if len(cols) == 0 {
		return nil, apperrors.NewStorageError(fmt.Sprintf("table %s has no columns", name), nil)
	}

	table := &exporter.FormattedTable{Index: cols[0], Columns: cols[1:]}
	values := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, apperrors.NewStorageError("failed to scan row", err)
		}
		row := exporter.FormattedRow{Key: values[0].String, Cells: make([]string, len(cols)-1)}
		for i := 1; i < len(cols); i++ {
			row.Cells[i-1] = values[i].String
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to iterate rows", err)
	}

	return table, nil
}

func createTableSQL(name string, header []string) string {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = quoteIdent(h) + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(cols, ", "))
}

func insertSQL(name string, header []string) string {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = quoteIdent(h)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(header)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(name), strings.Join(cols, ", "), marks)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
