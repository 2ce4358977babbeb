package events

import "time"

const (
	// AnalysisRunFinished is emitted once per run, after the workflow reached
	// visualize or error.
	AnalysisRunFinished = "ANALYSIS_RUN_FINISHED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "ANALYSIS_RUN_FINISHED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewRunFinished builds the summary event published for a finished run.
func NewRunFinished(runID, question, status, chartType string, retryCount, rowCount int, durationMs int64) BaseEvent {
	return BaseEvent{
		Type: AnalysisRunFinished,
		Data: map[string]interface{}{
			"run_id":      runID,
			"question":    question,
			"status":      status,
			"chart_type":  chartType,
			"retry_count": retryCount,
			"row_count":   rowCount,
			"duration_ms": durationMs,
		},
		OccurredAt: time.Now().UTC(),
	}
}
