package client

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecotraq/be-waste-dashboard/internal/record"
)

// PostgresSource reads the record store directly over pgx. Precomputed views
// are plain database views; relation expansion is not implemented here, so
// ReadTable with a non-empty Expand returns ErrExpandUnsupported and the
// caller falls back to the manual join.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a Postgres record-source adapter.
func NewPostgresSource(ctx context.Context, databaseURL string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping record store: %w", err)
	}
	return &PostgresSource{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() {
	s.pool.Close()
}

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// CallView selects everything from a database view.
func (s *PostgresSource) CallView(ctx context.Context, name string, _ record.RoleContext) ([]record.Row, error) {
	if !identPattern.MatchString(name) {
		return nil, fmt.Errorf("invalid view name %q", name)
	}
	rows, err := s.pool.Query(ctx, "SELECT * FROM "+name)
	if err != nil {
		return nil, fmt.Errorf("failed to call view %s: %w", name, mapPgError(err))
	}
	defer rows.Close()
	return collectRows(rows)
}

// ReadTable reads raw rows with optional equality filters. Inline relation
// expansion is the REST store's feature; this adapter reports it unsupported.
func (s *PostgresSource) ReadTable(ctx context.Context, table string, opts ReadOptions) ([]record.Row, error) {
	if len(opts.Expand) > 0 {
		return nil, fmt.Errorf("read table %s: %w", table, ErrExpandUnsupported)
	}
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	query := "SELECT * FROM " + table
	args := make([]any, 0, len(opts.Filter))
	clauses := make([]string, 0, len(opts.Filter))
	for _, p := range opts.Filter {
		if !identPattern.MatchString(p.Field) {
			return nil, fmt.Errorf("invalid filter field %q", p.Field)
		}
		args = append(args, p.Value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", p.Field, len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, mapPgError(err))
	}
	defer rows.Close()
	return collectRows(rows)
}

// ReadMany batch-fetches rows by id.
func (s *PostgresSource) ReadMany(ctx context.Context, table string, ids []string) ([]record.Row, error) {
	if len(ids) == 0 {
		return []record.Row{}, nil
	}
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	rows, err := s.pool.Query(ctx, "SELECT * FROM "+table+" WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s by id: %w", table, mapPgError(err))
	}
	defer rows.Close()
	return collectRows(rows)
}

// InsertRow writes a single row and returns it as stored.
func (s *PostgresSource) InsertRow(ctx context.Context, table string, row record.Row) (record.Row, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	// Deterministic column order keeps the statement stable for logging.
	cols := make([]string, 0, len(row))
	for col := range row {
		if !identPattern.MatchString(col) {
			return nil, fmt.Errorf("invalid column name %q", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	args := make([]any, 0, len(cols))
	placeholders := make([]string, 0, len(cols))
	for i, col := range cols {
		args = append(args, row[col])
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", table, mapPgError(err))
	}
	defer rows.Close()

	stored, err := collectRows(rows)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return record.Row{}, nil
	}
	return stored[0], nil
}

// collectRows converts a pgx result into generic rows keyed by column name.
func collectRows(rows pgx.Rows) ([]record.Row, error) {
	fields := rows.FieldDescriptions()
	out := []record.Row{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(record.Row, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", mapPgError(err))
	}
	return out, nil
}

// mapPgError folds Postgres error codes into the shared retrieval sentinels.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42501": // insufficient_privilege
			return fmt.Errorf("%w: %s", ErrPermissionDenied, pgErr.Message)
		case "42P01": // undefined_table
			return fmt.Errorf("%w: %s", ErrViewUnavailable, pgErr.Message)
		}
	}
	return err
}
