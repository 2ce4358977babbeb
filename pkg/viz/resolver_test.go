package viz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"insightai-be/internal/pkg/logger"
	"insightai-be/pkg/llm"
	"insightai-be/pkg/warehouse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM answers Generate calls in order and records every prompt.
type scriptedLLM struct {
	responses []string
	prompts   []string
	err       error
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.Generate(ctx, history[len(history)-1].Content, options...)
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", fmt.Errorf("%w: script exhausted", llm.ErrUnavailable)
	}
	out := s.responses[0]
	s.responses = s.responses[1:]
	return out, nil
}

const (
	analysisJSON  = `{"columns":[{"name":"category","type":"categorical","position":0},{"name":"revenue","type":"numeric","position":1}],"row_count":3,"data_pattern":"categorical_single_metric","category_column":"category","metric_columns":["revenue"],"text_columns":["category"]}`
	selectBarJSON = `{"chart_type":"bar","reasoning":"ranking","primary_metric":"revenue","secondary_metrics":[],"category_axis":"category"}`
)

func resolve(t *testing.T, question string, rows warehouse.Table, responses ...string) (*Resolution, *scriptedLLM) {
	t.Helper()
	fake := &scriptedLLM{responses: responses}
	res, err := NewResolver(fake, logger.NewNop()).Resolve(context.Background(), question, rows)
	require.NoError(t, err)
	return res, fake
}

func recordsOf(t *testing.T, cfg ChartConfig) []Record {
	t.Helper()
	require.NotNil(t, cfg.Data.Records, "expected record data")
	return cfg.Data.Records
}

func assertUniqueFirst(t *testing.T, cfg ChartConfig) {
	t.Helper()
	require.NotEmpty(t, cfg.RecommendedCharts)
	assert.Equal(t, cfg.ChartType, cfg.RecommendedCharts[0])
	seen := map[ChartType]bool{}
	for _, c := range cfg.RecommendedCharts {
		assert.False(t, seen[c], "duplicate recommendation %s", c)
		seen[c] = true
	}
}

func TestResolvePreservesAllColumns(t *testing.T) {
	rows := warehouse.Table{
		Columns: []string{"category", "product_name", "revenue", "percentage"},
		Rows: [][]any{
			{"Books", "Atlas", 123.45, 12.5},
			{"Toys", "Kite", 80.0, 8.1},
		},
	}
	// The draft dropped product_name
	draft := `{"type":"bar","title":"Revenue","xKey":"category","yKey":"revenue","data":[{"category":"Books","revenue":123.45,"percentage":12.5},{"category":"Toys","revenue":80,"percentage":8.1}]}`
	analysis := `{"columns":[{"name":"category","type":"categorical","position":0},{"name":"product_name","type":"categorical","position":1},{"name":"revenue","type":"numeric","position":2},{"name":"percentage","type":"numeric","position":3}],"row_count":2,"data_pattern":"detailed_records","category_column":"category","metric_columns":["revenue","percentage"],"text_columns":["product_name"]}`

	res, _ := resolve(t, "top products by revenue", rows, analysis, selectBarJSON, draft)

	recs := recordsOf(t, res.Config)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Len(t, r, len(rows.Columns))
	}
	assert.Equal(t, []string{"category", "product_name", "revenue", "percentage"}, recs[0].Keys())
	assert.Equal(t, "Atlas", recs[0][1].Value)
	assertUniqueFirst(t, res.Config)
}

func TestResolveCategoryKeyFallsBackToCategory(t *testing.T) {
	rows := warehouse.Table{Columns: []string{"category", "revenue"}, Rows: [][]any{{"Books", 10.0}, {"Toys", 5.0}}}
	draft := `{"type":"bar","title":"Revenue","xKey":"product_category","yKey":"total","data":[{"category":"Books","revenue":10},{"category":"Toys","revenue":5}]}`

	res, _ := resolve(t, "revenue by category", rows, analysisJSON, selectBarJSON, draft)

	assert.Equal(t, "category", res.Config.CategoryKey)
	assert.Equal(t, SingleKey("revenue"), res.Config.ValueKey)
	assert.Equal(t, ChartBar, res.Config.ChartType)
}

func TestResolveShapeOverrideToRadar(t *testing.T) {
	rows := warehouse.Table{
		Columns: []string{"category", "avg_price", "avg_rating", "avg_stock"},
		Rows:    [][]any{{"Books", 12.0, 4.1, 30.0}, {"Toys", 20.0, 3.9, 12.0}},
	}
	draft := `{"type":"bar","title":"Category stats","xKey":"category","yKey":["avg_price"],"data":[{"category":"Books","avg_price":12,"avg_rating":4.1,"avg_stock":30},{"category":"Toys","avg_price":20,"avg_rating":3.9,"avg_stock":12}]}`

	res, _ := resolve(t, "average price rating stock per category", rows, analysisJSON, selectBarJSON, draft)

	assert.Equal(t, ChartRadar, res.Config.ChartType)
	assert.Equal(t, MultiKey("avg_price", "avg_rating", "avg_stock"), res.Config.ValueKey)
	assert.Contains(t, res.Steps, "🔄 Smart fallback: Switching to radar chart for better visualization")
	assertUniqueFirst(t, res.Config)
}

func TestResolveKeywordPrecedence(t *testing.T) {
	rows := warehouse.Table{Columns: []string{"month", "revenue"}, Rows: [][]any{{"2024-01", 100.0}, {"2024-02", 150.0}}}
	draft := `{"type":"bar","title":"Revenue","xKey":"month","yKey":"revenue","data":[{"month":"2024-01","revenue":100},{"month":"2024-02","revenue":150}]}`

	tests := []struct {
		question string
		want     ChartType
	}{
		{"show monthly revenue", ChartLine},
		{"what percentage of monthly revenue comes from each month", ChartPie},
		{"cumulative revenue", ChartArea},
		{"revenue per month", ChartBar},
	}

	for _, tc := range tests {
		t.Run(tc.question, func(t *testing.T) {
			res, _ := resolve(t, tc.question, rows, analysisJSON, selectBarJSON, draft)
			assert.Equal(t, tc.want, res.Config.ChartType)
			assertUniqueFirst(t, res.Config)
		})
	}
}

func TestResolveKeywordOverrideLeavesSpecificTypes(t *testing.T) {
	rows := warehouse.Table{Columns: []string{"category", "revenue"}, Rows: [][]any{{"Books", 10.0}}}
	draft := `{"type":"table","title":"Everything","xKey":null,"yKey":null,"data":[{"category":"Books","revenue":10}]}`

	res, _ := resolve(t, "monthly revenue details", rows, analysisJSON, selectBarJSON, draft)
	assert.Equal(t, ChartTable, res.Config.ChartType)
}

func TestResolveHydratesFullResult(t *testing.T) {
	full := warehouse.Table{Columns: []string{"region", "sales"}}
	var draftRows []string
	for i := 0; i < 30; i++ {
		full.Rows = append(full.Rows, []any{fmt.Sprintf("R%02d", i), int64(i * 10)})
		if i < SampleSize {
			draftRows = append(draftRows, fmt.Sprintf(`{"region_name":"R%02d","sales_total":%d}`, i, i*10))
		}
	}
	draft := `{"type":"bar","title":"Sales","xKey":"region_name","yKey":"sales_total","data":[` + strings.Join(draftRows, ",") + `]}`

	res, fake := resolve(t, "sales by region", full, analysisJSON, selectBarJSON, draft)

	// Analysis only ever sees the sample
	assert.Equal(t, SampleSize, strings.Count(fake.prompts[0], "\n  ["))
	assert.Contains(t, fake.prompts[0], "showing 20 of 30 total rows")

	recs := recordsOf(t, res.Config)
	require.Len(t, recs, 30)
	for _, r := range recs {
		assert.Equal(t, []string{"region_name", "sales_total"}, r.Keys())
	}
	assert.Equal(t, "R29", recs[29][0].Value)
	assert.Equal(t, 290.0, recs[29][1].Value)
	// Recommendations come from the sample: 20 rows is too many for pie
	assert.Equal(t, []ChartType{ChartBar}, res.Config.RecommendedCharts)
}

func TestResolveMalformedConfigFallsBackToTable(t *testing.T) {
	rows := warehouse.Table{Columns: []string{"category", "revenue"}, Rows: [][]any{{"Books", 10.0}}}
	raw := "Sure! Here is your chart: bar chart of revenue"

	res, _ := resolve(t, "revenue by category", rows, analysisJSON, selectBarJSON, raw)

	assert.Equal(t, ChartTable, res.Config.ChartType)
	assert.Equal(t, "Query Results", res.Config.Title)
	require.NotNil(t, res.Config.Data.Raw)
	assert.Equal(t, raw, *res.Config.Data.Raw)
	assert.Empty(t, res.Config.CategoryKey)
	assert.True(t, res.Config.ValueKey.IsZero())
	assertUniqueFirst(t, res.Config)

	out, err := json.Marshal(res.Config)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"category_key":null`)
	assert.Contains(t, string(out), `"value_key":null`)
}

func TestResolveMalformedIntermediatesUseDeterministicDefaults(t *testing.T) {
	rows := warehouse.Table{Columns: []string{"category", "orders", "revenue"}, Rows: [][]any{{"Books", int64(3), 10.0}, {"Toys", int64(1), 5.0}}}
	draft := "```json\n" + `{"type":"composed","title":"Orders and revenue","xKey":"category","yKey":["orders","revenue"],"data":[{"category":"Books","orders":3,"revenue":10},{"category":"Toys","orders":1,"revenue":5}]}` + "\n```"

	res, fake := resolve(t, "orders and revenue by category", rows, "no idea", "still no idea", draft)

	assert.Equal(t, []string{"orders", "revenue"}, res.Analysis.MetricColumns)
	assert.Equal(t, "category", res.Analysis.CategoryColumn)
	assert.Equal(t, ChartComposed, res.Selection.ChartType)
	assert.Contains(t, fake.prompts[2], `"chart_type": "composed"`)

	assert.Equal(t, ChartComposed, res.Config.ChartType)
	assert.Equal(t, MultiKey("orders", "revenue"), res.Config.ValueKey)
}

func TestResolveCapabilityUnavailable(t *testing.T) {
	fake := &scriptedLLM{err: fmt.Errorf("%w: connection refused", llm.ErrUnavailable)}
	_, err := NewResolver(fake, logger.NewNop()).Resolve(context.Background(), "q", warehouse.Table{})
	assert.ErrorIs(t, err, llm.ErrUnavailable)
}

func TestRecommendChartsPerNumericBucket(t *testing.T) {
	rec := func(fields ...Field) []Record { return []Record{fields} }

	tests := []struct {
		name    string
		chosen  ChartType
		records []Record
		want    []ChartType
	}{
		{
			name:    "no numeric",
			chosen:  ChartTable,
			records: rec(Field{"name", "a"}, Field{"city", "b"}),
			want:    []ChartType{ChartTable},
		},
		{
			name:    "one numeric",
			chosen:  ChartBar,
			records: rec(Field{"name", "a"}, Field{"revenue", 1.0}),
			want:    []ChartType{ChartBar, ChartPie},
		},
		{
			name:    "two numeric",
			chosen:  ChartComposed,
			records: rec(Field{"name", "a"}, Field{"orders", 1.0}, Field{"revenue", 2.0}),
			want:    []ChartType{ChartComposed, ChartBar, ChartScatter, ChartStackedColumn, ChartClusteredColumn, ChartStacked100},
		},
		{
			name:    "three numeric",
			chosen:  ChartRadar,
			records: rec(Field{"name", "a"}, Field{"x", 1.0}, Field{"y", 2.0}, Field{"z", 3.0}),
			want:    []ChartType{ChartRadar, ChartBar, ChartTable, ChartScatter, ChartStackedColumn, ChartClusteredColumn, ChartStacked100},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := recommendCharts(tc.chosen, "", tc.records)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSelectByKeywordsPrecedence(t *testing.T) {
	two := AnalysisResult{CategoryColumn: "category", MetricColumns: []string{"orders", "revenue"}}
	one := AnalysisResult{CategoryColumn: "category", MetricColumns: []string{"revenue"}}

	assert.Equal(t, ChartPie, selectByKeywords("revenue share and trend", two).ChartType)
	assert.Equal(t, ChartLine, selectByKeywords("daily orders and revenue", two).ChartType)
	assert.Equal(t, ChartComposed, selectByKeywords("orders and revenue by category", two).ChartType)
	assert.Equal(t, ChartScatter, selectByKeywords("orders vs revenue", two).ChartType)
	assert.Equal(t, ChartBar, selectByKeywords("list revenue by category", one).ChartType)
	assert.Equal(t, ChartTable, selectByKeywords("list all customers", AnalysisResult{CategoryColumn: "name"}).ChartType)
}

func TestResolveHydratesSingleColumnResult(t *testing.T) {
	full := warehouse.Table{Columns: []string{"email"}}
	var draftRows []string
	for i := 0; i < 30; i++ {
		full.Rows = append(full.Rows, []any{fmt.Sprintf("user%02d@example.com", i)})
		if i < SampleSize {
			draftRows = append(draftRows, fmt.Sprintf(`{"email":"user%02d@example.com"}`, i))
		}
	}
	analysis := `{"columns":[{"name":"email","type":"categorical","position":0}],"row_count":30,"data_pattern":"detailed_records","category_column":"email","metric_columns":[],"text_columns":["email"]}`
	selection := `{"chart_type":"table","reasoning":"list","primary_metric":"","secondary_metrics":[],"category_axis":"email"}`
	draft := `{"type":"table","title":"Customer emails","xKey":"email","yKey":null,"data":[` + strings.Join(draftRows, ",") + `]}`

	res, _ := resolve(t, "list all customer emails", full, analysis, selection, draft)

	assert.Equal(t, ChartTable, res.Config.ChartType)
	recs := recordsOf(t, res.Config)
	require.Len(t, recs, 30)
	assert.Equal(t, []string{"email"}, recs[29].Keys())
	assert.Equal(t, "user29@example.com", recs[29][0].Value)
}

func TestResolveTableRepairsDanglingCategoryKey(t *testing.T) {
	rows := warehouse.Table{
		Columns: []string{"name", "city", "country", "email"},
		Rows:    [][]any{{"Ada", "Paris", "France", "ada@example.com"}, {"Bo", "Oslo", "Norway", "bo@example.com"}},
	}
	analysis := `{"columns":[{"name":"name","type":"categorical","position":0},{"name":"city","type":"categorical","position":1},{"name":"country","type":"categorical","position":2},{"name":"email","type":"categorical","position":3}],"row_count":2,"data_pattern":"detailed_records","category_column":"name","metric_columns":[],"text_columns":["name","city","country","email"]}`
	selection := `{"chart_type":"table","reasoning":"details","primary_metric":"","secondary_metrics":[],"category_axis":"customer_name"}`
	draft := `{"type":"table","title":"Customers","xKey":"customer_name","yKey":null,"data":[{"name":"Ada","city":"Paris","country":"France","email":"ada@example.com"},{"name":"Bo","city":"Oslo","country":"Norway","email":"bo@example.com"}]}`

	res, _ := resolve(t, "list customer details", rows, analysis, selection, draft)

	assert.Equal(t, ChartTable, res.Config.ChartType)
	assert.Equal(t, "name", res.Config.CategoryKey)
	for _, r := range recordsOf(t, res.Config) {
		assert.True(t, r.Has(res.Config.CategoryKey))
	}
}

func TestResolveTableKeepsUnsetCategoryKey(t *testing.T) {
	rows := warehouse.Table{Columns: []string{"name", "email"}, Rows: [][]any{{"Ada", "ada@example.com"}}}
	draft := `{"type":"table","title":"Customers","xKey":null,"yKey":null,"data":[{"name":"Ada","email":"ada@example.com"}]}`

	res, _ := resolve(t, "list customer details", rows, "no idea", "no idea", draft)

	assert.Equal(t, ChartTable, res.Config.ChartType)
	assert.Empty(t, res.Config.CategoryKey)
}

func TestResolveKeywordMatchingCurrentTypeStillReported(t *testing.T) {
	rows := warehouse.Table{Columns: []string{"month", "revenue"}, Rows: [][]any{{"2024-01", 100.0}, {"2024-02", 150.0}}}
	selection := `{"chart_type":"line","reasoning":"trend","primary_metric":"revenue","secondary_metrics":[],"category_axis":"month"}`
	draft := `{"type":"line","title":"Revenue","xKey":"month","yKey":"revenue","data":[{"month":"2024-01","revenue":100},{"month":"2024-02","revenue":150}]}`

	res, _ := resolve(t, "show monthly revenue", rows, analysisJSON, selection, draft)

	assert.Equal(t, ChartLine, res.Config.ChartType)
	assert.Contains(t, res.Steps, "🔄 Smart fallback: Switching to line chart for better visualization")
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "héll...", truncate("héllo wörld", 4))
	assert.Equal(t, "📊📊...", truncate("📊📊📊", 2))
}
