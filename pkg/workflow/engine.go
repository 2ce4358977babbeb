package workflow

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"insightai-be/internal/pkg/logger"
	"insightai-be/pkg/viz"
	"insightai-be/pkg/warehouse"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Visualizer turns a successful result set into a chart configuration.
type Visualizer interface {
	Resolve(ctx context.Context, question string, rows warehouse.Table) (*viz.Resolution, error)
}

// Engine wires the run graph:
//
//	generate_query -> execute_query -> Decide
//	    Decide: visualize | fix_query -> execute_query | error
//
// It holds no per-run state, so one Engine serves concurrent runs.
type Engine struct {
	schema     warehouse.SchemaProvider
	executor   warehouse.QueryExecutor
	architect  QueryWriter
	visualizer Visualizer
	logger     logger.ILogger
	tracer     trace.Tracer
}

func NewEngine(
	schema warehouse.SchemaProvider,
	executor warehouse.QueryExecutor,
	architect QueryWriter,
	visualizer Visualizer,
	log logger.ILogger,
) *Engine {
	return &Engine{
		schema:     schema,
		executor:   executor,
		architect:  architect,
		visualizer: visualizer,
		logger:     log,
		tracer:     otel.Tracer("insightai-be/workflow"),
	}
}

// Transition is one executed node and the document it produced.
type Transition struct {
	Node  Node
	State State
}

// Run is a single in-flight question. It is not safe for concurrent use.
type Run struct {
	engine *Engine
	schema string
	state  State
	next   Node
	done   bool
}

// Start fetches the schema and positions a new run before its first node.
// A schema failure aborts before any generation attempt.
func (e *Engine) Start(ctx context.Context, question string) (*Run, error) {
	schema, err := e.schema.Schema(ctx)
	if err != nil {
		e.logger.Error("Workflow", "Schema unavailable", map[string]interface{}{"error": err.Error()})
		if !errors.Is(err, warehouse.ErrSchemaUnavailable) {
			err = fmt.Errorf("%w: %v", warehouse.ErrSchemaUnavailable, err)
		}
		return nil, err
	}

	return &Run{
		engine: e,
		schema: schema,
		state:  State{Question: question, Steps: []string{}},
		next:   NodeGenerateQuery,
	}, nil
}

// State returns the latest document snapshot.
func (r *Run) State() State {
	return r.state
}

// Done reports whether the run reached a terminal node or failed.
func (r *Run) Done() bool {
	return r.done
}

// Next executes one node. It returns ok=false once the run is finished. A
// non-nil error means a capability was unreachable; the run is then over.
func (r *Run) Next(ctx context.Context) (Transition, bool, error) {
	if r.done {
		return Transition{}, false, nil
	}

	node := r.next
	ctx, span := r.engine.tracer.Start(ctx, "workflow."+string(node),
		trace.WithAttributes(attribute.Int("retry_count", r.state.RetryCount)))
	defer span.End()

	var (
		next State
		err  error
	)

	// 1. Execute the node
	switch node {
	case NodeGenerateQuery:
		next, err = r.engine.generateQuery(ctx, r.state, r.schema)
		r.next = NodeExecuteQuery
	case NodeFixQuery:
		next, err = r.engine.fixQuery(ctx, r.state, r.schema)
		r.next = NodeExecuteQuery
	case NodeExecuteQuery:
		next = r.engine.executeQuery(ctx, r.state)
		// 2. Branch on the result
		r.next = Decide(next)
		r.engine.logger.Info("Workflow", "Execution decided", map[string]interface{}{
			"next":        r.next,
			"retry_count": next.RetryCount,
		})
	case NodeVisualize:
		next, err = r.engine.visualize(ctx, r.state)
		r.done = true
	case NodeError:
		next = r.engine.fail(r.state)
		r.done = true
	default:
		err = fmt.Errorf("unknown node %q", node)
	}

	if err != nil {
		r.done = true
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.engine.logger.Error("Workflow", "Run aborted", map[string]interface{}{
			"node":  node,
			"error": err.Error(),
		})
		return Transition{}, false, err
	}

	r.state = next
	return Transition{Node: node, State: next}, true, nil
}

// Invoke drives a run to completion and returns the final document.
func (e *Engine) Invoke(ctx context.Context, question string) (State, error) {
	run, err := e.Start(ctx, question)
	if err != nil {
		return State{}, err
	}
	for {
		_, ok, err := run.Next(ctx)
		if err != nil {
			return State{}, err
		}
		if !ok {
			return run.State(), nil
		}
	}
}

func (e *Engine) generateQuery(ctx context.Context, s State, schema string) (State, error) {
	s = s.withSteps(
		"🔍 Analyzing your question...",
		"📊 Retrieved database schema",
		"🤖 SQL Architect is writing query...",
	)

	query, err := e.architect.WriteQuery(ctx, s.Question, schema, "")
	if err != nil {
		return State{}, fmt.Errorf("sql generation: %w", err)
	}

	s.Query = query
	s.Error = ""
	return s.withSteps("✅ SQL query generated"), nil
}

func (e *Engine) fixQuery(ctx context.Context, s State, schema string) (State, error) {
	s = s.withSteps(
		"🔧 Self-healing: Attempting to fix SQL...",
		fmt.Sprintf("🤖 SQL Architect is correcting query (Attempt %d/%d)...", s.RetryCount, MaxRetries),
	)

	query, err := e.architect.WriteQuery(ctx, s.Question, schema, s.Error)
	if err != nil {
		return State{}, fmt.Errorf("sql correction: %w", err)
	}

	s.Query = query
	s.Error = ""
	return s.withSteps("✅ Corrected SQL query generated"), nil
}

// executeQuery never fails the run: every outcome becomes a state change.
func (e *Engine) executeQuery(ctx context.Context, s State) State {
	s = s.withSteps("⚡ Executing query on PostgreSQL...")

	rows, err := e.executor.Execute(ctx, s.Query)
	if err != nil {
		s.Error = err.Error()
		if s.Error == "" {
			s.Error = "query execution failed"
		}
		s.Rows = warehouse.Table{}
		s.RetryCount++
		e.logger.Warn("Workflow", "Query execution failed", map[string]interface{}{
			"retry_count": s.RetryCount,
			"error":       s.Error,
		})
		return s.withSteps(fmt.Sprintf("❌ Error: %s...", truncateRunes(s.Error, 100)))
	}

	s.Rows = rows
	s.Error = ""
	return s.withSteps("✅ Query executed successfully")
}

func (e *Engine) visualize(ctx context.Context, s State) (State, error) {
	res, err := e.visualizer.Resolve(ctx, s.Question, s.Rows)
	if err != nil {
		return State{}, fmt.Errorf("visualization: %w", err)
	}

	s = s.withSteps(res.Steps...)
	cfg := res.Config
	s.Visualization = &cfg
	return s, nil
}

func (e *Engine) fail(s State) State {
	s = s.withSteps(fmt.Sprintf("❌ Self-healing failed after %d attempts", MaxRetries))
	cfg := viz.ErrorConfig(s.Error)
	s.Visualization = &cfg
	return s
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
