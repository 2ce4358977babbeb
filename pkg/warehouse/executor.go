package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"insightai-be/internal/pkg/logger"

	"gorm.io/gorm"
)

// GormExecutor runs generated SQL on the pool owned by a gorm handle.
// Statements run inside a read-only transaction that is always rolled back.
type GormExecutor struct {
	db     *gorm.DB
	logger logger.ILogger
}

func NewGormExecutor(db *gorm.DB, log logger.ILogger) *GormExecutor {
	return &GormExecutor{db: db, logger: log}
}

func (e *GormExecutor) Execute(ctx context.Context, query string) (Table, error) {
	sqlDB, err := e.db.DB()
	if err != nil {
		return Table{}, &ExecutionError{Query: query, Message: err.Error()}
	}

	tx, err := sqlDB.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return Table{}, &ExecutionError{Query: query, Message: err.Error()}
	}
	defer tx.Rollback() //nolint:errcheck

	start := time.Now()
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		e.logger.Warn("Warehouse", "Query failed", map[string]interface{}{"error": err.Error()})
		return Table{}, &ExecutionError{Query: query, Message: err.Error()}
	}
	defer rows.Close()

	table, err := scanTable(rows)
	if err != nil {
		return Table{}, &ExecutionError{Query: query, Message: err.Error()}
	}

	e.logger.Info("Warehouse", "Query executed", map[string]interface{}{
		"columns":     len(table.Columns),
		"rows":        len(table.Rows),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return table, nil
}

func scanTable(rows *sql.Rows) (Table, error) {
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return Table{}, err
	}

	table := Table{
		Columns: make([]string, len(columnTypes)),
		Rows:    [][]any{},
	}
	for i, ct := range columnTypes {
		table.Columns[i] = ct.Name()
	}

	for rows.Next() {
		values := make([]any, len(columnTypes))
		pointers := make([]any, len(columnTypes))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return Table{}, err
		}
		for i, ct := range columnTypes {
			values[i] = normalizeValue(values[i], ct.DatabaseTypeName())
		}
		table.Rows = append(table.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return Table{}, err
	}
	return table, nil
}

// normalizeValue maps driver values onto JSON-friendly scalars: decimals become
// float64, dates become ISO strings, byte slices and booleans become text.
func normalizeValue(v any, dbType string) any {
	dbType = strings.ToUpper(dbType)
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return normalizeValue(string(val), dbType)
	case string:
		if dbType == "NUMERIC" || dbType == "DECIMAL" || dbType == "MONEY" {
			if f, err := strconv.ParseFloat(strings.TrimPrefix(val, "$"), 64); err == nil {
				return f
			}
		}
		return val
	case time.Time:
		if dbType == "DATE" {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(val)
	case int64, int32, int, float64, float32:
		return val
	case int16:
		return int64(val)
	case int8:
		return int64(val)
	default:
		return fmt.Sprint(val)
	}
}
