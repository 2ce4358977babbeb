package viz

import (
	"encoding/json"
	"fmt"
	"strings"

	"insightai-be/pkg/warehouse"
)

// SampleSize bounds the rows any capability phase ever sees.
const SampleSize = 20

// formatRows renders the sample as one JSON array per row, prefixed with the
// driver column names, plus a note when the result was truncated.
func formatRows(sample warehouse.Table, total int) string {
	var sb strings.Builder

	if len(sample.Columns) > 0 {
		header, _ := json.Marshal(sample.Columns)
		sb.WriteString("COLUMNS: ")
		sb.Write(header)
		sb.WriteString("\n")
	}

	sb.WriteString("[\n")
	for i, row := range sample.Rows {
		safe := make([]any, len(row))
		for j, v := range row {
			safe[j] = jsonSafe(v)
		}
		line, err := json.Marshal(safe)
		if err != nil {
			line = []byte(fmt.Sprint(row))
		}
		sb.WriteString("  ")
		sb.Write(line)
		if i < len(sample.Rows)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("]")

	if total > sample.Len() {
		sb.WriteString(fmt.Sprintf("\n... (showing %d of %d total rows)", sample.Len(), total))
	}
	return sb.String()
}

func buildAnalysisPrompt(question, rows string) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are a Data Pattern Analyst. You identify the structure of query results so the best visualization can be chosen.\n")
	prompt.WriteString("You do NOT draw charts. You only describe the data.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</question>\n\n")

	prompt.WriteString("<query_results>\n")
	prompt.WriteString("Each row is a JSON array. Each position in the array is a different column.\n")
	prompt.WriteString("For example: [\"Books\", \"Product Name Here\", 123.45, 25.5] has 4 columns.\n\n")
	prompt.WriteString(rows)
	prompt.WriteString("\n</query_results>\n\n")

	prompt.WriteString("<instructions>\n")
	prompt.WriteString("1. COLUMNS: list EVERY column with a meaningful field name based on the question (e.g. \"product_name\", \"category\", \"revenue\"), its type (numeric|categorical|temporal) and its position (0, 1, 2...).\n")
	prompt.WriteString("2. ROW_COUNT: number of data rows.\n")
	prompt.WriteString("3. DATA_PATTERN: one of\n")
	prompt.WriteString("   - time_series: values over time periods\n")
	prompt.WriteString("   - categorical_single_metric: categories with one numeric value each\n")
	prompt.WriteString("   - categorical_multi_metric: categories with 2+ numeric values each\n")
	prompt.WriteString("   - correlation: two numeric columns that might be related\n")
	prompt.WriteString("   - composition: parts of a whole\n")
	prompt.WriteString("   - detailed_records: 4+ columns mixing text and numbers\n")
	prompt.WriteString("4. TEXT_COLUMNS: text columns that should be displayed (names, descriptions).\n")
	prompt.WriteString("</instructions>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON, no markdown:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"columns\": [{\"name\": \"category\", \"type\": \"categorical\", \"position\": 0}],\n")
	prompt.WriteString("  \"row_count\": 10,\n")
	prompt.WriteString("  \"data_pattern\": \"time_series|categorical_single_metric|categorical_multi_metric|correlation|composition|detailed_records\",\n")
	prompt.WriteString("  \"category_column\": \"column_name_for_labels\",\n")
	prompt.WriteString("  \"metric_columns\": [\"numeric_column1\"],\n")
	prompt.WriteString("  \"text_columns\": [\"product_name\"],\n")
	prompt.WriteString("  \"special_notes\": \"any observations\"\n")
	prompt.WriteString("}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func buildSelectionPrompt(question string, analysis AnalysisResult) string {
	analysisJSON, _ := json.MarshalIndent(analysis, "", "  ")

	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are a Visualization Expert. You pick the chart type that most clearly communicates the data.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</question>\n\n")

	prompt.WriteString("<data_analysis>\n")
	prompt.Write(analysisJSON)
	prompt.WriteString("\n</data_analysis>\n\n")

	prompt.WriteString("<selection_rules>\n")
	prompt.WriteString("Apply the FIRST rule that matches, in this order:\n")
	prompt.WriteString("1. \"percentage\", \"distribution\", \"proportion\", \"share\" -> pie\n")
	prompt.WriteString("2. \"trend\", \"over time\", \"monthly\", \"daily\", \"yearly\" -> line\n")
	prompt.WriteString("3. \"cumulative\", \"running total\", \"stacked over time\" -> area\n")
	prompt.WriteString("4. 3+ numeric metrics, or \"compare multiple metrics\" -> radar\n")
	prompt.WriteString("5. two metrics joined by \"and\" (e.g. \"sales and orders\", count + amount) -> composed\n")
	prompt.WriteString("6. \"correlation\", \"vs\", \"relationship between\" two numeric columns -> scatter\n")
	prompt.WriteString("7. \"by category\", \"per category\", \"top N\" with a single metric -> bar\n")
	prompt.WriteString("8. \"list\", \"details\", \"all records\", \"show me all\" -> table\n")
	prompt.WriteString("Do NOT default to bar unless it is clearly a categorical single-metric comparison.\n")
	prompt.WriteString("</selection_rules>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON, no markdown:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"chart_type\": \"bar|line|pie|area|scatter|radar|composed|table\",\n")
	prompt.WriteString("  \"reasoning\": \"Brief explanation\",\n")
	prompt.WriteString("  \"primary_metric\": \"main numeric column\",\n")
	prompt.WriteString("  \"secondary_metrics\": [\"additional numeric columns\"],\n")
	prompt.WriteString("  \"category_axis\": \"column for the x-axis\"\n")
	prompt.WriteString("}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func buildConfigPrompt(question string, selection ChartSelection, analysis AnalysisResult, rows string) string {
	selectionJSON, _ := json.MarshalIndent(selection, "", "  ")

	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are a BI Dashboard Specialist. You turn query results into a JSON chart configuration for the frontend.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</question>\n\n")

	prompt.WriteString("<chart_selection>\n")
	prompt.Write(selectionJSON)
	prompt.WriteString("\n</chart_selection>\n\n")

	if len(analysis.Columns) > 0 {
		prompt.WriteString("<column_names>\n")
		for _, c := range analysis.Columns {
			prompt.WriteString(fmt.Sprintf("%d: %s (%s)\n", c.Position, c.Name, c.Type))
		}
		prompt.WriteString("</column_names>\n\n")
	}

	prompt.WriteString("<query_results>\n")
	prompt.WriteString(rows)
	prompt.WriteString("\n</query_results>\n\n")

	prompt.WriteString("<instructions>\n")
	prompt.WriteString("1. PRESERVE ALL COLUMNS from the query results. Do NOT drop any column.\n")
	prompt.WriteString("2. Convert each row to a JSON object with descriptive field names, in column order.\n")
	prompt.WriteString("   Example: [\"Books\", \"Product A\", 123.45, 12.34] -> {\"category\": \"Books\", \"product_name\": \"Product A\", \"revenue\": 123.45, \"percentage\": 12.34}\n")
	prompt.WriteString("3. Use the chart_type from the selection.\n")
	prompt.WriteString("4. Map category_axis to xKey.\n")
	prompt.WriteString("5. For radar and composed charts, yKey is an ARRAY of every numeric field name. Otherwise yKey is the primary metric.\n")
	prompt.WriteString("</instructions>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON, no markdown:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"type\": \"the chart type from the selection\",\n")
	prompt.WriteString("  \"title\": \"Descriptive chart title based on the question\",\n")
	prompt.WriteString("  \"xKey\": \"category field\",\n")
	prompt.WriteString("  \"yKey\": \"primary_metric\" or [\"metric1\", \"metric2\", \"metric3\"],\n")
	prompt.WriteString("  \"data\": [{\"field\": \"value\"}]\n")
	prompt.WriteString("}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}
