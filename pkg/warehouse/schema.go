package warehouse

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"insightai-be/internal/pkg/logger"

	"gorm.io/gorm"
)

const sampleRowLimit = 3

type columnInfo struct {
	TableName  string `gorm:"column:table_name"`
	ColumnName string `gorm:"column:column_name"`
	DataType   string `gorm:"column:data_type"`
	IsNullable string `gorm:"column:is_nullable"`
}

// GormSchemaProvider renders the public schema as CREATE TABLE text, the form
// the query writer is prompted with.
type GormSchemaProvider struct {
	db          *gorm.DB
	exclude     map[string]bool
	withSamples bool
	logger      logger.ILogger
}

// NewGormSchemaProvider builds a provider over the public schema. Tables listed
// in exclude (bookkeeping tables owned by this service) are never described.
func NewGormSchemaProvider(db *gorm.DB, log logger.ILogger, withSamples bool, exclude ...string) *GormSchemaProvider {
	ex := make(map[string]bool, len(exclude))
	for _, t := range exclude {
		ex[t] = true
	}
	return &GormSchemaProvider{db: db, exclude: ex, withSamples: withSamples, logger: log}
}

func (p *GormSchemaProvider) Schema(ctx context.Context) (string, error) {
	var cols []columnInfo
	err := p.db.WithContext(ctx).Raw(`
		SELECT table_name, column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'public'
		ORDER BY table_name, ordinal_position`).Scan(&cols).Error
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSchemaUnavailable, err)
	}

	// Group by table, keeping catalog order
	var order []string
	byTable := make(map[string][]columnInfo)
	for _, c := range cols {
		if p.exclude[c.TableName] {
			continue
		}
		if _, seen := byTable[c.TableName]; !seen {
			order = append(order, c.TableName)
		}
		byTable[c.TableName] = append(byTable[c.TableName], c)
	}

	if len(order) == 0 {
		return "", fmt.Errorf("%w: no tables in public schema", ErrSchemaUnavailable)
	}

	var sb strings.Builder
	for i, table := range order {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		writeCreateTable(&sb, table, byTable[table])

		if p.withSamples {
			p.writeSamples(ctx, &sb, table)
		}
	}

	return sb.String(), nil
}

func writeCreateTable(sb *strings.Builder, table string, cols []columnInfo) {
	fmt.Fprintf(sb, "CREATE TABLE %s (\n", table)
	for i, c := range cols {
		fmt.Fprintf(sb, "\t%s %s", c.ColumnName, strings.ToUpper(c.DataType))
		if c.IsNullable == "NO" {
			sb.WriteString(" NOT NULL")
		}
		if i < len(cols)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(")")
}

// writeSamples appends a few example rows as a SQL comment. Failures here only
// cost context, so they are logged and skipped.
func (p *GormSchemaProvider) writeSamples(ctx context.Context, sb *strings.Builder, table string) {
	var rows []map[string]interface{}
	quoted := `"` + strings.ReplaceAll(table, `"`, `""`) + `"`
	err := p.db.WithContext(ctx).Raw(fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoted, sampleRowLimit)).Scan(&rows).Error
	if err != nil {
		p.logger.Warn("Warehouse", "Sample rows unavailable", map[string]interface{}{"table": table, "error": err.Error()})
		return
	}
	if len(rows) == 0 {
		return
	}

	fmt.Fprintf(sb, "\n/*\n%d rows from %s table:\n", len(rows), table)
	for _, r := range rows {
		parts := make([]string, 0, len(r))
		for k, v := range r {
			parts = append(parts, fmt.Sprintf("%s=%v", k, normalizeValue(v, "")))
		}
		sort.Strings(parts)
		sb.WriteString(strings.Join(parts, "\t"))
		sb.WriteString("\n")
	}
	sb.WriteString("*/")
}
