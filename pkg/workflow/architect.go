package workflow

import (
	"context"
	"strings"

	"insightai-be/internal/pkg/logger"
	"insightai-be/pkg/llm"
)

// QueryWriter produces SQL for a question. A non-empty priorError switches it
// into correction mode.
type QueryWriter interface {
	WriteQuery(ctx context.Context, question, schema, priorError string) (string, error)
}

// SQLArchitect writes PostgreSQL queries with an LLM at temperature 0.
type SQLArchitect struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewSQLArchitect(llmProvider llm.LLMProvider, log logger.ILogger) *SQLArchitect {
	return &SQLArchitect{llmProvider: llmProvider, logger: log}
}

func (a *SQLArchitect) WriteQuery(ctx context.Context, question, schema, priorError string) (string, error) {
	response, err := a.llmProvider.Chat(ctx, []llm.Message{
		{Role: "system", Content: architectSystemPrompt},
		{Role: "user", Content: buildQueryPrompt(question, schema, priorError)},
	}, llm.WithTemperature(0))
	if err != nil {
		return "", err
	}

	query := llm.StripCodeFence(response)
	a.logger.Debug("SQLArchitect", "Query written", map[string]interface{}{
		"correction": priorError != "",
		"query":      query,
	})
	return query, nil
}

const architectSystemPrompt = `You are a Senior Database Engineer with 15 years of experience optimizing PostgreSQL queries.
You always check the schema before writing any code.
You never use SELECT *; always specify columns explicitly.
You handle NULL values appropriately and use proper JOINs.
Return ONLY the SQL query, no explanations.`

func buildQueryPrompt(question, schema, priorError string) string {
	var prompt strings.Builder

	if priorError != "" {
		prompt.WriteString("The previous SQL query failed with an error. Please fix it.\n\n")
	} else {
		prompt.WriteString("Generate a PostgreSQL query to answer the user's question.\n\n")
	}

	prompt.WriteString("<schema>\n")
	prompt.WriteString(schema)
	prompt.WriteString("\n</schema>\n\n")

	prompt.WriteString("<question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</question>\n\n")

	if priorError != "" {
		prompt.WriteString("<error>\n")
		prompt.WriteString(priorError)
		prompt.WriteString("\n</error>\n\n")

		prompt.WriteString("Write a CORRECTED PostgreSQL query that:\n")
		prompt.WriteString("1. Addresses the error message\n")
		prompt.WriteString("2. Properly answers the user's question\n")
		prompt.WriteString("3. Uses only tables and columns that exist in the schema\n\n")
		prompt.WriteString("Return ONLY the corrected SQL query, nothing else.")
		return prompt.String()
	}

	prompt.WriteString("Write a PostgreSQL query that:\n")
	prompt.WriteString("1. Accurately answers the question\n")
	prompt.WriteString("2. Uses only tables and columns from the schema\n")
	prompt.WriteString("3. Is optimized for performance\n")
	prompt.WriteString("4. Handles potential NULL values\n\n")
	prompt.WriteString("Return ONLY the SQL query, nothing else. No markdown, no explanations.")
	return prompt.String()
}
