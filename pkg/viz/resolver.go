package viz

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"insightai-be/internal/pkg/logger"
	"insightai-be/pkg/llm"
	"insightai-be/pkg/warehouse"
)

// Resolution is the output of one visualization pass.
type Resolution struct {
	Config    ChartConfig
	Analysis  AnalysisResult
	Selection ChartSelection
	Steps     []string
}

// Resolver turns a successful result set into a chart configuration using
// three capability calls (analysis, selection, config generation) followed by
// deterministic post-processing.
type Resolver struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewResolver(llmProvider llm.LLMProvider, log logger.ILogger) *Resolver {
	return &Resolver{
		llmProvider: llmProvider,
		logger:      log,
	}
}

// Resolve only fails when a capability is unreachable. Malformed responses
// degrade to deterministic defaults.
func (r *Resolver) Resolve(ctx context.Context, question string, rows warehouse.Table) (*Resolution, error) {
	res := &Resolution{}
	step := func(msg string) { res.Steps = append(res.Steps, msg) }

	step("📊 Multi-Agent Visualization System starting...")

	sample := rows.Head(SampleSize)
	sampleText := formatRows(sample, rows.Len())

	// Agent 1: structure analysis
	step("🔍 Agent 1: Data Analyzer examining data structure...")
	analysisRaw, err := r.llmProvider.Generate(ctx, buildAnalysisPrompt(question, sampleText), llm.WithTemperature(0.1))
	if err != nil {
		return nil, fmt.Errorf("data analysis: %w", err)
	}
	analysis, ok := parseAnalysis(analysisRaw)
	if !ok {
		r.logger.Warn("Visualizer", "Analysis output malformed, deriving from result set", map[string]interface{}{
			"response": truncate(analysisRaw, 200),
		})
		analysis = deriveAnalysis(sample, rows.Len())
	}
	res.Analysis = analysis
	step("✅ Data analysis complete")

	// Agent 2: chart selection
	step("📈 Agent 2: Chart Selector choosing visualization...")
	selectionRaw, err := r.llmProvider.Generate(ctx, buildSelectionPrompt(question, analysis), llm.WithTemperature(0.1))
	if err != nil {
		return nil, fmt.Errorf("chart selection: %w", err)
	}
	selection, ok := parseSelection(selectionRaw)
	if !ok {
		selection = selectByKeywords(question, analysis)
		r.logger.Warn("Visualizer", "Selection output malformed, using keyword precedence", map[string]interface{}{
			"chart_type": selection.ChartType,
		})
	}
	res.Selection = selection
	step("✅ Chart type selected")

	// Agent 3: config generation
	step("⚙️ Agent 3: Generating visualization config...")
	configRaw, err := r.llmProvider.Generate(ctx, buildConfigPrompt(question, selection, analysis, sampleText), llm.WithTemperature(0))
	if err != nil {
		return nil, fmt.Errorf("config generation: %w", err)
	}

	draft, ok := parseConfigDraft(configRaw)
	if !ok {
		r.logger.Warn("Visualizer", "Config output malformed, falling back to table", map[string]interface{}{
			"response": truncate(configRaw, 200),
		})
		res.Config = TableFallback(configRaw)
	} else {
		cfg, extra := finalize(finalizeInput{
			Question: question,
			Draft:    draft,
			Analysis: analysis,
			Full:     rows,
			Sample:   sample,
		})
		res.Config = cfg
		res.Steps = append(res.Steps, extra...)
	}

	step(fmt.Sprintf("✅ Visualization ready: %s chart (Recommended: %s)",
		res.Config.ChartType, joinTypes(res.Config.RecommendedCharts)))

	r.logger.Info("Visualizer", "Visualization resolved", map[string]interface{}{
		"chart_type":  res.Config.ChartType,
		"selected":    selection.ChartType,
		"rows":        rows.Len(),
		"recommended": res.Config.RecommendedCharts,
	})
	return res, nil
}

func joinTypes(types []ChartType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
