package dto

import (
	"encoding/json"
	"time"

	"insightai-be/pkg/viz"

	"github.com/google/uuid"
)

type AnalyzeRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

type QueryRequest struct {
	Sql string `json:"sql" validate:"required"`
}

type HistoryRequest struct {
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Status    string `query:"status" validate:"omitempty,oneof=visualized error failed"`
	ChartType string `query:"chart_type" validate:"omitempty,oneof=bar line pie area scatter radar composed table"`
	Days      int    `query:"days" validate:"omitempty,min=1,max=365"`
}

type HistoryResponse struct {
	Total int64         `json:"total"`
	Runs  []*RunSummary `json:"runs"`
}

// TableDTO is the raw result set in column order.
type TableDTO struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

type AnalyzeResponse struct {
	RunId         uuid.UUID        `json:"run_id"`
	Question      string           `json:"question"`
	SqlQuery      string           `json:"sql_query"`
	Rows          TableDTO         `json:"rows"`
	Visualization *viz.ChartConfig `json:"visualization"`
	Steps         []string         `json:"steps"`
	RetryCount    int              `json:"retry_count"`
	Error         string           `json:"error,omitempty"`
}

type SchemaResponse struct {
	Schema string `json:"schema"`
}

type QueryResponse struct {
	Sql  string   `json:"sql"`
	Rows TableDTO `json:"rows"`
}

// StreamEvent is one SSE data line or websocket frame.
type StreamEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Node string      `json:"node,omitempty"`
}

type RunSummary struct {
	Id            uuid.UUID       `json:"id"`
	Question      string          `json:"question"`
	SqlQuery      string          `json:"sql_query"`
	Status        string          `json:"status"`
	ChartType     string          `json:"chart_type"`
	RetryCount    int             `json:"retry_count"`
	RowCount      int             `json:"row_count"`
	Error         string          `json:"error,omitempty"`
	DurationMs    int64           `json:"duration_ms"`
	CreatedAt     time.Time       `json:"created_at"`
	Steps         []string        `json:"steps,omitempty"`
	Visualization json.RawMessage `json:"visualization,omitempty"`
}

// RunProgress is the live snapshot of an in-flight run.
type RunProgress struct {
	Id         uuid.UUID `json:"id"`
	Question   string    `json:"question"`
	Node       string    `json:"node"`
	Done       bool      `json:"done"`
	SqlQuery   string    `json:"sql_query"`
	RetryCount int       `json:"retry_count"`
	Steps      []string  `json:"steps"`
	StartedAt  time.Time `json:"started_at"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

type RunStatusResponse struct {
	Live    *RunProgress `json:"live,omitempty"`
	Summary *RunSummary  `json:"summary,omitempty"`
}
