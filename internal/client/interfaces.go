package client

import (
	"context"

	"github.com/ecotraq/be-waste-dashboard/internal/record"
)

// RecordSource is the boundary to the remote record store. Two adapters
// implement it: the REST adapter (PostgREST-style store) and the direct
// Postgres adapter.
type RecordSource interface {
	// CallView invokes a precomputed, server-defined multi-entity view by
	// name. View results arrive with relations already embedded.
	CallView(ctx context.Context, name string, role record.RoleContext) ([]record.Row, error)

	// ReadTable reads raw rows from a table, optionally expanding declared
	// relations inline and restricting rows with filter predicates.
	ReadTable(ctx context.Context, table string, opts ReadOptions) ([]record.Row, error)

	// ReadMany fetches rows from a table by id, used to build reference sets
	// for the manual join path.
	ReadMany(ctx context.Context, table string, ids []string) ([]record.Row, error)

	// InsertRow writes a single row and returns it as stored. The dashboard
	// core uses this only for the weighing capture pass-through.
	InsertRow(ctx context.Context, table string, row record.Row) (record.Row, error)
}

// RelationSpec declares an inline relation expansion for ReadTable.
type RelationSpec struct {
	// Column is the foreign-key column on the primary table.
	Column string
	// Table is the referenced table.
	Table string
	// As is the field name the embedded record is returned under.
	As string
	// Columns is the projection of the referenced record.
	Columns []string
}

// Predicate is a single row filter, applied server-side.
type Predicate struct {
	Field string
	Op    string // eq is the only operator the dashboard needs
	Value string
}

// ReadOptions carries the optional parts of a ReadTable call.
type ReadOptions struct {
	Expand []RelationSpec
	Filter []Predicate
}
