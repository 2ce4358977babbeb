package viz

import (
	"fmt"
	"strings"

	"insightai-be/pkg/warehouse"
)

var preferredCategoryKeys = []string{"name", "customer", "label", "category"}

// finalizeInput carries everything post-processing needs; no capability is
// called from here.
type finalizeInput struct {
	Question string
	Draft    ChartConfigDraft
	Analysis AnalysisResult
	Full     warehouse.Table
	Sample   warehouse.Table
}

// finalize applies, in order: column preservation, key resolution, keyword
// override, shape override, recommendations and full-dataset hydration. It
// returns the config and any progress messages it produced.
func finalize(in finalizeInput) (ChartConfig, []string) {
	var steps []string

	cfg := ChartConfig{
		ChartType:   in.Draft.Type,
		Title:       strings.TrimSpace(in.Draft.Title),
		CategoryKey: in.Draft.XKey,
		ValueKey:    in.Draft.YKey,
	}
	if !cfg.ChartType.Selectable() {
		cfg.ChartType = ChartBar
	}
	if cfg.Title == "" {
		cfg.Title = "Query Results"
	}

	// 1. Column preservation
	records := preserveColumns(in.Draft.Data, in.Analysis, in.Sample)

	// 2. Key resolution
	if len(records) > 0 {
		resolveKeys(&cfg, records[0])
	}

	// 3. Keyword override
	override := keywordOverride(in.Question)

	// 4. Shape override, only when no keyword fired
	if override == "" && len(records) > 0 && cfg.ChartType.isDefault() {
		numeric := records[0].NumericKeys()
		switch {
		case len(numeric) >= 3:
			override = ChartRadar
			cfg.ValueKey = MultiKey(numeric...)
		case len(numeric) == 2 && cfg.ChartType == ChartBar && andWord.MatchString(strings.ToLower(in.Question)):
			override = ChartComposed
			cfg.ValueKey = MultiKey(numeric...)
		}
	}

	// A trigger that matches the current type still reports the switch.
	if override != "" && cfg.ChartType.isDefault() {
		cfg.ChartType = override
		steps = append(steps, fmt.Sprintf("🔄 Smart fallback: Switching to %s chart for better visualization", override))
	}

	// 5. Recommendations are computed on the sampled records
	cfg.RecommendedCharts = recommendCharts(cfg.ChartType, in.Question, records)

	// 6. Hydration
	if in.Full.Len() > in.Sample.Len() && len(records) > 0 {
		records = rebuildRecords(records[0].Keys(), in.Full)
	}

	cfg.Data = RecordData(records)
	return cfg, steps
}

// preserveColumns guarantees one record per sampled row carrying every result
// column, and a uniform key set across records. When the draft dropped a
// column or a row, records are rebuilt positionally from the sample.
func preserveColumns(draft []Record, analysis AnalysisResult, sample warehouse.Table) []Record {
	width := sample.Width()

	if sample.Len() == 0 {
		return normalizeRecords(draft)
	}

	if len(draft) == sample.Len() && len(draft[0]) >= width {
		return normalizeRecords(draft)
	}

	var keys []string
	if len(draft) > 0 && len(draft[0]) == width {
		keys = draft[0].Keys()
	} else {
		keys = positionalNames(analysis, sample)
	}
	return rebuildRecords(keys, sample)
}

// positionalNames names each column from the analysis when it covers that
// position, else from the driver column name. Names are made unique.
func positionalNames(analysis AnalysisResult, t warehouse.Table) []string {
	width := t.Width()
	names := make([]string, width)
	used := make(map[string]bool, width)

	for pos := 0; pos < width; pos++ {
		name := strings.TrimSpace(analysis.NameAt(pos))
		if name == "" {
			name = columnName(t, pos)
		}
		base, n := name, 2
		for used[name] {
			name = fmt.Sprintf("%s_%d", base, n)
			n++
		}
		used[name] = true
		names[pos] = name
	}
	return names
}

// rebuildRecords maps rows onto keys by position, coercing numbers to float64.
func rebuildRecords(keys []string, t warehouse.Table) []Record {
	out := make([]Record, 0, t.Len())
	for _, row := range t.Rows {
		rec := make(Record, 0, len(keys))
		for i, key := range keys {
			if i >= len(row) {
				break
			}
			rec = append(rec, Field{Key: key, Value: toFloat(row[i])})
		}
		out = append(out, rec)
	}
	return out
}

// normalizeRecords gives every record the first record's key set and order.
func normalizeRecords(records []Record) []Record {
	if len(records) == 0 {
		return records
	}
	keys := records[0].Keys()
	out := make([]Record, len(records))
	for i, r := range records {
		rec := make(Record, len(keys))
		for j, key := range keys {
			v, _ := r.Get(key)
			rec[j] = Field{Key: key, Value: toFloat(v)}
		}
		out[i] = rec
	}
	return out
}

// resolveKeys repairs axis keys so every referenced key exists in first.
func resolveKeys(cfg *ChartConfig, first Record) {
	// Tables may leave the category axis unset, but never dangling.
	switch {
	case cfg.ChartType != ChartTable && !first.Has(cfg.CategoryKey):
		cfg.CategoryKey = pickCategoryKey(first)
	case cfg.CategoryKey != "" && !first.Has(cfg.CategoryKey):
		cfg.CategoryKey = pickCategoryKey(first)
	}

	vk := cfg.ValueKey
	if vk.Multi && !cfg.ChartType.MultiMetric() {
		if p := vk.Primary(); p != "" {
			vk = SingleKey(p)
		} else {
			vk = SingleKey("value")
		}
	}

	if vk.Multi {
		kept := make([]string, 0, len(vk.Keys))
		for _, k := range vk.Keys {
			if first.Has(k) {
				kept = append(kept, k)
			}
		}
		if len(kept) == 0 {
			kept = first.NumericKeys()
		}
		vk = MultiKey(kept...)
	} else if p := vk.Primary(); p != "" && !first.Has(p) {
		vk = SingleKey(firstOf(first.NumericKeys()))
	} else if p == "" && cfg.ChartType != ChartTable {
		vk = SingleKey(firstOf(first.NumericKeys()))
	}

	cfg.ValueKey = vk
}

func pickCategoryKey(first Record) string {
	for _, preferred := range preferredCategoryKeys {
		if first.Has(preferred) {
			return preferred
		}
	}
	for _, f := range first {
		if !isNumeric(f.Value) {
			return f.Key
		}
	}
	return ""
}

func firstOf(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}
