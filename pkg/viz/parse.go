package viz

import (
	"encoding/json"
	"strings"

	"insightai-be/pkg/llm"
)

// Parsers return ok=false on malformed output; callers substitute defaults.

func parseAnalysis(response string) (AnalysisResult, bool) {
	raw := llm.ExtractJSON(response)
	if raw == "" {
		return AnalysisResult{}, false
	}
	var a AnalysisResult
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return AnalysisResult{}, false
	}
	if len(a.Columns) == 0 {
		return AnalysisResult{}, false
	}
	return a, true
}

func parseSelection(response string) (ChartSelection, bool) {
	raw := llm.ExtractJSON(response)
	if raw == "" {
		return ChartSelection{}, false
	}
	var s ChartSelection
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return ChartSelection{}, false
	}
	s.ChartType = ChartType(strings.ToLower(strings.TrimSpace(string(s.ChartType))))
	if !s.ChartType.Selectable() {
		return ChartSelection{}, false
	}
	return s, true
}

func parseConfigDraft(response string) (ChartConfigDraft, bool) {
	var d ChartConfigDraft
	if err := json.Unmarshal([]byte(llm.StripCodeFence(response)), &d); err != nil {
		// Prose around an otherwise valid object
		d = ChartConfigDraft{}
		raw := llm.ExtractJSON(response)
		if raw == "" || json.Unmarshal([]byte(raw), &d) != nil {
			return ChartConfigDraft{}, false
		}
	}
	d.Type = ChartType(strings.ToLower(strings.TrimSpace(string(d.Type))))
	return d, true
}

// TableFallback is the configuration for an unparseable generation output.
func TableFallback(raw string) ChartConfig {
	return ChartConfig{
		ChartType:         ChartTable,
		Title:             "Query Results",
		Data:              RawData(raw),
		RecommendedCharts: []ChartType{ChartTable},
	}
}
