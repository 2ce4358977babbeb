package warehouse

import (
	"context"
	"errors"
)

// ErrSchemaUnavailable is returned when the schema description cannot be produced.
var ErrSchemaUnavailable = errors.New("schema unavailable")

// ExecutionError carries the store's failure text for a query that did not run.
type ExecutionError struct {
	Query   string
	Message string
}

func (e *ExecutionError) Error() string {
	return e.Message
}

// SchemaProvider describes the tables and columns a query may use.
type SchemaProvider interface {
	Schema(ctx context.Context) (string, error)
}

// QueryExecutor runs a query and returns every column in its original order.
type QueryExecutor interface {
	Execute(ctx context.Context, query string) (Table, error)
}

// Table is a positional result set: Rows[i][j] belongs to Columns[j].
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func (t Table) Len() int {
	return len(t.Rows)
}

func (t Table) IsEmpty() bool {
	return len(t.Rows) == 0
}

// Head returns a table sharing the column list with at most n rows.
func (t Table) Head(n int) Table {
	if n < 0 || n >= len(t.Rows) {
		return t
	}
	return Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// Width is the column count, falling back to the widest row when no column
// names were reported.
func (t Table) Width() int {
	if len(t.Columns) > 0 {
		return len(t.Columns)
	}
	width := 0
	for _, r := range t.Rows {
		if len(r) > width {
			width = len(r)
		}
	}
	return width
}
