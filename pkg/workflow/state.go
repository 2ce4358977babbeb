package workflow

import (
	"insightai-be/pkg/viz"
	"insightai-be/pkg/warehouse"
)

// MaxRetries bounds self-healing: after this many failed executions the run
// ends in the error branch.
const MaxRetries = 3

// Node names one unit of work in the run graph.
type Node string

const (
	NodeGenerateQuery Node = "generate_query"
	NodeExecuteQuery  Node = "execute_query"
	NodeFixQuery      Node = "fix_query"
	NodeVisualize     Node = "visualize"
	NodeError         Node = "error"
)

// State is the document threaded through every node of a run. Nodes never
// mutate a State they receive; they return a modified copy whose Steps slice
// does not share storage with the input.
type State struct {
	Question      string           `json:"question"`
	Query         string           `json:"sql_query"`
	Rows          warehouse.Table  `json:"rows"`
	Error         string           `json:"error"`
	Visualization *viz.ChartConfig `json:"visualization"`
	RetryCount    int              `json:"retry_count"`
	Steps         []string         `json:"steps"`
}

// withSteps returns a copy of s with msgs appended to the progress log.
func (s State) withSteps(msgs ...string) State {
	steps := make([]string, len(s.Steps), len(s.Steps)+len(msgs))
	copy(steps, s.Steps)
	s.Steps = append(steps, msgs...)
	return s
}

// Decide picks the node that follows an execution. It only reads Error and
// RetryCount.
func Decide(s State) Node {
	if s.Error == "" {
		return NodeVisualize
	}
	if s.RetryCount < MaxRetries {
		return NodeFixQuery
	}
	return NodeError
}

// Failed reports whether the run ended in the error branch.
func (s State) Failed() bool {
	return s.Visualization != nil && s.Visualization.ChartType == viz.ChartError
}
