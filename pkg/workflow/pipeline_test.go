package workflow

import (
	"context"
	"strings"
	"testing"

	"insightai-be/internal/pkg/logger"
	"insightai-be/pkg/llm"
	"insightai-be/pkg/viz"
	"insightai-be/pkg/warehouse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cannedLLM returns responses in order.
type cannedLLM struct {
	responses []string
}

func (c *cannedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return c.Generate(ctx, "", options...)
}

func (c *cannedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	out := c.responses[0]
	c.responses = c.responses[1:]
	return out, nil
}

func TestRunKeepsEveryColumn(t *testing.T) {
	rows := warehouse.Table{
		Columns: []string{"category", "product_name", "revenue", "percentage"},
		Rows: [][]any{
			{"Books", "Atlas", 123.45, 12.5},
			{"Toys", "Kite", 80.0, 8.1},
			{"Games", "Chess", 42.0, 4.2},
		},
	}

	fake := &cannedLLM{responses: []string{
		"```sql\nSELECT c.name, p.name, SUM(oi.amount), 0 FROM order_items oi\n```",
		"not json",
		"not json either",
		`{"type":"bar","title":"Top products","xKey":"category","yKey":"revenue","data":[{"category":"Books","revenue":123.45}]}`,
	}}

	e := NewEngine(
		staticSchema{},
		&flakyExecutor{table: rows},
		NewSQLArchitect(fake, logger.NewNop()),
		viz.NewResolver(fake, logger.NewNop()),
		logger.NewNop(),
	)

	final, err := e.Invoke(context.Background(), "top products with revenue and percentage")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(final.Query, "SELECT c.name"))
	require.NotNil(t, final.Visualization)
	recs := final.Visualization.Data.Records
	require.Len(t, recs, 3)
	for _, r := range recs {
		assert.Len(t, r, len(final.Rows.Columns))
	}
	assert.NotEqual(t, viz.ChartError, final.Visualization.ChartType)
	assert.Equal(t, final.Visualization.ChartType, final.Visualization.RecommendedCharts[0])
}
