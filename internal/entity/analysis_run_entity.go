package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusVisualized RunStatus = "visualized" // Chart produced
	RunStatusExhausted  RunStatus = "error"      // Retry bound hit, error chart returned
	RunStatusFailed     RunStatus = "failed"     // Schema or capability unavailable
)

type AnalysisRun struct {
	Id            uuid.UUID
	Question      string
	SqlQuery      string
	Status        RunStatus
	ChartType     string
	RetryCount    int
	RowCount      int
	Steps         []string
	Visualization json.RawMessage
	Error         string
	DurationMs    int64
	CreatedAt     time.Time
}

// RunProgress is the live view of a run that has not finished yet.
type RunProgress struct {
	Id         uuid.UUID
	Question   string
	Node       string
	Done       bool
	SqlQuery   string
	RetryCount int
	Steps      []string
	StartedAt  time.Time
}
