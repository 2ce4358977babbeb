package warehouse

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"insightai-be/internal/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func TestExecutePreservesEveryColumn(t *testing.T) {
	db, mock := newMockDB(t)
	exec := NewGormExecutor(db, logger.NewNop())

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("category").OfType("VARCHAR", ""),
		sqlmock.NewColumn("revenue").OfType("NUMERIC", ""),
		sqlmock.NewColumn("orders").OfType("INT8", int64(0)),
		sqlmock.NewColumn("first_order").OfType("DATE", time.Time{}),
	).
		AddRow("Books", "1250.50", int64(12), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)).
		AddRow("Toys", "80", int64(3), time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC))

	query := "SELECT category, revenue, orders, first_order FROM sales"
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(rows)
	mock.ExpectRollback()

	table, err := exec.Execute(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, []string{"category", "revenue", "orders", "first_order"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []any{"Books", 1250.50, int64(12), "2024-03-01"}, table.Rows[0])
	assert.Equal(t, 80.0, table.Rows[1][1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteWrapsStoreFailure(t *testing.T) {
	db, mock := newMockDB(t)
	exec := NewGormExecutor(db, logger.NewNop())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT").WillReturnError(errors.New(`column "totl" does not exist`))
	mock.ExpectRollback()

	_, err := exec.Execute(context.Background(), "SELECT totl FROM orders")
	require.Error(t, err)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, `column "totl" does not exist`, execErr.Message)
	assert.Equal(t, "SELECT totl FROM orders", execErr.Query)
}

func TestSchemaRendersCreateTable(t *testing.T) {
	db, mock := newMockDB(t)
	p := NewGormSchemaProvider(db, logger.NewNop(), false, "analysis_runs")

	mock.ExpectQuery("information_schema.columns").WillReturnRows(
		sqlmock.NewRows([]string{"table_name", "column_name", "data_type", "is_nullable"}).
			AddRow("analysis_runs", "id", "uuid", "NO").
			AddRow("customers", "id", "integer", "NO").
			AddRow("customers", "name", "character varying", "YES").
			AddRow("orders", "total_amount", "numeric", "YES"),
	)

	schema, err := p.Schema(context.Background())
	require.NoError(t, err)

	assert.Contains(t, schema, "CREATE TABLE customers (\n\tid INTEGER NOT NULL,\n\tname CHARACTER VARYING\n)")
	assert.Contains(t, schema, "CREATE TABLE orders (\n\ttotal_amount NUMERIC\n)")
	assert.NotContains(t, schema, "analysis_runs")
}

func TestSchemaUnavailable(t *testing.T) {
	db, mock := newMockDB(t)
	p := NewGormSchemaProvider(db, logger.NewNop(), false)

	mock.ExpectQuery("information_schema.columns").WillReturnError(errors.New("connection refused"))

	_, err := p.Schema(context.Background())
	assert.ErrorIs(t, err, ErrSchemaUnavailable)
}

type countingSchema struct {
	calls int
	err   error
}

func (c *countingSchema) Schema(ctx context.Context) (string, error) {
	c.calls++
	return "CREATE TABLE t (id INTEGER)", c.err
}

func TestCachedSchemaHitsInnerOnce(t *testing.T) {
	inner := &countingSchema{}
	c := NewCachedSchemaProvider(inner, nil, time.Minute, logger.NewNop())

	for i := 0; i < 3; i++ {
		s, err := c.Schema(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "CREATE TABLE t (id INTEGER)", s)
	}
	assert.Equal(t, 1, inner.calls)

	c.Invalidate(context.Background())
	_, _ = c.Schema(context.Background())
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSchemaDoesNotCacheFailures(t *testing.T) {
	inner := &countingSchema{err: ErrSchemaUnavailable}
	c := NewCachedSchemaProvider(inner, nil, time.Minute, logger.NewNop())

	_, err := c.Schema(context.Background())
	assert.ErrorIs(t, err, ErrSchemaUnavailable)
	_, _ = c.Schema(context.Background())
	assert.Equal(t, 2, inner.calls)
}

func TestTableHead(t *testing.T) {
	tbl := Table{Columns: []string{"a"}, Rows: [][]any{{1}, {2}, {3}}}
	assert.Equal(t, 2, tbl.Head(2).Len())
	assert.Equal(t, 3, tbl.Head(20).Len())
	assert.Equal(t, 1, Table{Rows: [][]any{{1}}}.Width())
}

func TestNormalizeValueKeepsChartScalars(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		dbType string
		want   any
	}{
		{"bool true", true, "BOOL", "true"},
		{"bool false", false, "BOOL", "false"},
		{"numeric text", []byte("12.50"), "NUMERIC", 12.5},
		{"int16", int16(7), "INT2", int64(7)},
		{"null", nil, "TEXT", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeValue(tc.in, tc.dbType))
		})
	}
}
