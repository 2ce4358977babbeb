package viz

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"insightai-be/pkg/warehouse"
)

type keywordFamily struct {
	chart    ChartType
	keywords []string
}

// overrideFamilies is evaluated in order; the first family with a hit wins.
var overrideFamilies = []keywordFamily{
	{ChartPie, []string{"percentage", "distribution", "proportion", "share", "breakdown"}},
	{ChartLine, []string{"trend", "over time", "monthly", "daily", "yearly", "weekly", "timeline"}},
	{ChartArea, []string{"cumulative", "running total", "stacked"}},
	{ChartScatter, []string{"correlation", "relationship between", "price vs", "vs rating"}},
	{ChartRadar, []string{"compare", "multiple metrics", "price, rating", "rating, stock", "price and rating and"}},
	{ChartComposed, []string{"sales and orders", "revenue and count", "amount and number"}},
}

var (
	andWord    = regexp.MustCompile(`\band\b`)
	versusWord = regexp.MustCompile(`\bvs\.?\b|\bversus\b`)
)

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// keywordOverride returns the chart type triggered by the question, or "".
func keywordOverride(question string) ChartType {
	q := strings.ToLower(question)
	for _, fam := range overrideFamilies {
		if containsAny(q, fam.keywords...) {
			return fam.chart
		}
	}
	return ""
}

// recommendCharts lists viable alternatives for the data, the chosen type first.
func recommendCharts(chosen ChartType, question string, records []Record) []ChartType {
	out := []ChartType{chosen}
	add := func(t ChartType) {
		for _, existing := range out {
			if existing == t {
				return
			}
		}
		out = append(out, t)
	}

	if len(records) == 0 {
		return out
	}

	q := strings.ToLower(question)
	keys := records[0].Keys()
	numeric := len(records[0].NumericKeys())
	rows := len(records)

	if numeric >= 1 {
		add(ChartBar)
	}
	if len(keys) >= 4 {
		add(ChartTable)
	}
	if numeric >= 3 {
		add(ChartRadar)
	}
	if numeric == 2 {
		add(ChartComposed)
	}
	if containsAny(q, "trend", "time", "monthly", "daily", "yearly") {
		add(ChartLine)
	}
	if numeric == 1 && rows <= 10 {
		add(ChartPie)
	}
	if containsAny(q, "cumulative", "total", "stacked") {
		add(ChartArea)
	}
	if numeric >= 2 {
		add(ChartScatter)
		add(ChartStackedColumn)
		add(ChartClusteredColumn)
	}
	if numeric >= 2 && rows <= 15 {
		add(ChartStacked100)
	}
	return out
}

// Integer columns with these names are period labels, not metrics.
var periodNameHints = []string{"year", "month", "week", "quarter"}

// deriveAnalysis builds a structure analysis from the result set alone. It
// stands in for a malformed analysis response.
func deriveAnalysis(sample warehouse.Table, total int) AnalysisResult {
	width := sample.Width()
	a := AnalysisResult{RowCount: total}

	numeric, temporal, text := 0, 0, 0
	for pos := 0; pos < width; pos++ {
		name := columnName(sample, pos)
		colType := inferColumnType(sample, pos, name)
		a.Columns = append(a.Columns, ColumnInfo{Name: name, Type: colType, Position: pos})

		switch colType {
		case ColumnNumeric:
			numeric++
			a.MetricColumns = append(a.MetricColumns, name)
		case ColumnTemporal:
			temporal++
			if a.CategoryColumn == "" {
				a.CategoryColumn = name
			}
		default:
			text++
			a.TextColumns = append(a.TextColumns, name)
			if a.CategoryColumn == "" {
				a.CategoryColumn = name
			}
		}
	}

	switch {
	case temporal > 0 && numeric >= 1:
		a.DataPattern = PatternTimeSeries
	case width >= 4 && text > 0:
		a.DataPattern = PatternDetailedRecords
	case numeric == 2 && text == 0:
		a.DataPattern = PatternCorrelation
	case numeric == 1:
		a.DataPattern = PatternSingleMetric
	case numeric >= 2:
		a.DataPattern = PatternMultiMetric
	default:
		a.DataPattern = PatternDetailedRecords
	}
	return a
}

func columnName(t warehouse.Table, pos int) string {
	if pos < len(t.Columns) && t.Columns[pos] != "" && t.Columns[pos] != "?column?" {
		return t.Columns[pos]
	}
	return "column_" + strconv.Itoa(pos+1)
}

func inferColumnType(t warehouse.Table, pos int, name string) ColumnType {
	seen, numeric, temporal := 0, 0, 0
	for _, row := range t.Rows {
		if pos >= len(row) || row[pos] == nil {
			continue
		}
		seen++
		switch v := row[pos].(type) {
		case time.Time:
			temporal++
		case string:
			if looksTemporal(v) {
				temporal++
			}
		default:
			if isNumeric(v) {
				numeric++
			}
		}
	}

	switch {
	case seen > 0 && temporal == seen:
		return ColumnTemporal
	case seen > 0 && numeric == seen:
		if containsAny(strings.ToLower(name), periodNameHints...) {
			return ColumnTemporal
		}
		return ColumnNumeric
	default:
		return ColumnCategorical
	}
}

func looksTemporal(s string) bool {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// selectByKeywords is the deterministic chart choice used when the selection
// response is malformed. Precedence: pie, line, area, radar, composed,
// scatter, bar, table.
func selectByKeywords(question string, a AnalysisResult) ChartSelection {
	q := strings.ToLower(question)
	metrics := len(a.MetricColumns)

	sel := ChartSelection{CategoryAxis: a.CategoryColumn}
	if metrics > 0 {
		sel.PrimaryMetric = a.MetricColumns[0]
		sel.SecondaryMetrics = append([]string(nil), a.MetricColumns[1:]...)
	}

	switch {
	case containsAny(q, "percentage", "distribution", "proportion", "share", "breakdown"):
		sel.ChartType = ChartPie
	case containsAny(q, "trend", "over time", "monthly", "daily", "yearly", "weekly", "timeline") ||
		(a.DataPattern == PatternTimeSeries && metrics >= 1):
		sel.ChartType = ChartLine
	case containsAny(q, "cumulative", "running total", "stacked"):
		sel.ChartType = ChartArea
	case metrics >= 3 || containsAny(q, "compare multiple", "multiple metrics"):
		sel.ChartType = ChartRadar
	case metrics == 2 && andWord.MatchString(q):
		sel.ChartType = ChartComposed
	case metrics >= 2 && (containsAny(q, "correlation", "relationship between") || versusWord.MatchString(q)):
		sel.ChartType = ChartScatter
	case metrics == 1 && a.CategoryColumn != "":
		sel.ChartType = ChartBar
	case containsAny(q, "list", "details", "all records", "show me all"):
		sel.ChartType = ChartTable
	case metrics >= 1:
		sel.ChartType = ChartBar
	default:
		sel.ChartType = ChartTable
	}

	sel.Reasoning = "keyword precedence fallback"
	return sel
}
