package viz

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ChartType is the renderer-facing chart identifier.
type ChartType string

const (
	ChartBar      ChartType = "bar"
	ChartLine     ChartType = "line"
	ChartPie      ChartType = "pie"
	ChartArea     ChartType = "area"
	ChartScatter  ChartType = "scatter"
	ChartRadar    ChartType = "radar"
	ChartComposed ChartType = "composed"
	ChartTable    ChartType = "table"
	ChartError    ChartType = "error"

	// Recommendation-only variants, never selected as the primary type
	ChartStackedColumn   ChartType = "stacked_column"
	ChartClusteredColumn ChartType = "clustered_column"
	ChartStacked100      ChartType = "stacked_100"
)

// Selectable reports whether t may be chosen by the selection phase.
func (t ChartType) Selectable() bool {
	switch t {
	case ChartBar, ChartLine, ChartPie, ChartArea, ChartScatter, ChartRadar, ChartComposed, ChartTable:
		return true
	}
	return false
}

// MultiMetric reports whether t renders a list of value keys.
func (t ChartType) MultiMetric() bool {
	return t == ChartRadar || t == ChartComposed
}

// isDefault is true for the two types heuristics are allowed to replace.
func (t ChartType) isDefault() bool {
	return t == ChartBar || t == ChartLine
}

// ValueKey is either a single field name or an ordered list of field names.
// It marshals as a JSON string, an array, or null when empty.
type ValueKey struct {
	Keys  []string
	Multi bool
}

func SingleKey(key string) ValueKey {
	if key == "" {
		return ValueKey{}
	}
	return ValueKey{Keys: []string{key}}
}

func MultiKey(keys ...string) ValueKey {
	return ValueKey{Keys: append([]string(nil), keys...), Multi: true}
}

func (v ValueKey) IsZero() bool {
	return len(v.Keys) == 0 && !v.Multi
}

// Primary returns the first key, or "".
func (v ValueKey) Primary() string {
	if len(v.Keys) == 0 {
		return ""
	}
	return v.Keys[0]
}

func (v ValueKey) MarshalJSON() ([]byte, error) {
	if v.Multi {
		keys := v.Keys
		if keys == nil {
			keys = []string{}
		}
		return json.Marshal(keys)
	}
	if len(v.Keys) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(v.Keys[0])
}

func (v *ValueKey) UnmarshalJSON(b []byte) error {
	*v = ValueKey{}
	trimmed := bytes.TrimSpace(b)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		return nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		var raw []interface{}
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		v.Multi = true
		v.Keys = []string{}
		for _, item := range raw {
			if s, ok := item.(string); ok && s != "" {
				v.Keys = append(v.Keys, s)
			}
		}
		return nil
	default:
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("value key must be a string or a list: %w", err)
		}
		*v = SingleKey(s)
		return nil
	}
}

// ChartData is either a list of records or, after a parse fallback, the raw
// completion text. A zero ChartData marshals as null.
type ChartData struct {
	Records []Record
	Raw     *string
}

func RecordData(records []Record) ChartData {
	if records == nil {
		records = []Record{}
	}
	return ChartData{Records: records}
}

func RawData(text string) ChartData {
	return ChartData{Raw: &text}
}

func (d ChartData) IsNull() bool {
	return d.Records == nil && d.Raw == nil
}

func (d ChartData) MarshalJSON() ([]byte, error) {
	switch {
	case d.Raw != nil:
		return json.Marshal(*d.Raw)
	case d.Records != nil:
		return json.Marshal(d.Records)
	default:
		return []byte("null"), nil
	}
}

func (d *ChartData) UnmarshalJSON(b []byte) error {
	*d = ChartData{}
	trimmed := bytes.TrimSpace(b)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		return nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		d.Raw = &s
		return nil
	default:
		var recs []Record
		if err := json.Unmarshal(trimmed, &recs); err != nil {
			return err
		}
		*d = RecordData(recs)
		return nil
	}
}

// ChartConfig is the renderable output of a run.
type ChartConfig struct {
	ChartType         ChartType   `json:"chart_type"`
	Title             string      `json:"title"`
	Message           string      `json:"message,omitempty"`
	CategoryKey       string      `json:"category_key"`
	ValueKey          ValueKey    `json:"value_key"`
	Data              ChartData   `json:"data"`
	RecommendedCharts []ChartType `json:"recommended_charts"`
}

// chartConfigJSON swaps CategoryKey for a nullable pointer on the wire.
type chartConfigJSON struct {
	chartConfigAlias
	CategoryKey *string `json:"category_key"`
}

type chartConfigAlias ChartConfig

func (c ChartConfig) MarshalJSON() ([]byte, error) {
	out := chartConfigJSON{chartConfigAlias: chartConfigAlias(c)}
	if c.CategoryKey != "" {
		key := c.CategoryKey
		out.CategoryKey = &key
	}
	if out.RecommendedCharts == nil {
		out.RecommendedCharts = []ChartType{}
	}
	return json.Marshal(out)
}

func (c *ChartConfig) UnmarshalJSON(b []byte) error {
	var in chartConfigJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*c = ChartConfig(in.chartConfigAlias)
	c.CategoryKey = ""
	if in.CategoryKey != nil {
		c.CategoryKey = *in.CategoryKey
	}
	return nil
}

// ErrorConfig is the terminal configuration for a run whose query never executed.
func ErrorConfig(message string) ChartConfig {
	return ChartConfig{
		ChartType:         ChartError,
		Title:             "Query Failed",
		Message:           message,
		RecommendedCharts: []ChartType{ChartError},
	}
}

// ColumnType tags a result column in the structure analysis.
type ColumnType string

const (
	ColumnNumeric     ColumnType = "numeric"
	ColumnCategorical ColumnType = "categorical"
	ColumnTemporal    ColumnType = "temporal"
)

// DataPattern classifies the overall result shape.
type DataPattern string

const (
	PatternTimeSeries      DataPattern = "time_series"
	PatternSingleMetric    DataPattern = "categorical_single_metric"
	PatternMultiMetric     DataPattern = "categorical_multi_metric"
	PatternCorrelation     DataPattern = "correlation"
	PatternComposition     DataPattern = "composition"
	PatternDetailedRecords DataPattern = "detailed_records"
)

type ColumnInfo struct {
	Name     string     `json:"name"`
	Type     ColumnType `json:"type"`
	Position int        `json:"position"`
}

// AnalysisResult is the structure analysis of a result set.
type AnalysisResult struct {
	Columns        []ColumnInfo `json:"columns"`
	RowCount       int          `json:"row_count"`
	DataPattern    DataPattern  `json:"data_pattern"`
	CategoryColumn string       `json:"category_column"`
	MetricColumns  []string     `json:"metric_columns"`
	TextColumns    []string     `json:"text_columns"`
	SpecialNotes   string       `json:"special_notes,omitempty"`
}

// NameAt returns the analysis name for a column position, or "".
func (a AnalysisResult) NameAt(position int) string {
	for _, c := range a.Columns {
		if c.Position == position {
			return c.Name
		}
	}
	return ""
}

// ChartSelection is the chosen chart type and the fields it plots.
type ChartSelection struct {
	ChartType        ChartType `json:"chart_type"`
	Reasoning        string    `json:"reasoning"`
	PrimaryMetric    string    `json:"primary_metric"`
	SecondaryMetrics []string  `json:"secondary_metrics"`
	CategoryAxis     string    `json:"category_axis"`
}

// ChartConfigDraft is the config skeleton as produced by the generation phase,
// before any deterministic repair.
type ChartConfigDraft struct {
	Type  ChartType `json:"type"`
	Title string    `json:"title"`
	XKey  string    `json:"xKey"`
	YKey  ValueKey  `json:"yKey"`
	Data  []Record  `json:"data"`
}
