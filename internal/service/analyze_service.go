package service

import (
	"context"
	"encoding/json"
	"time"

	"insightai-be/internal/dto"
	"insightai-be/internal/entity"
	"insightai-be/internal/metrics"
	"insightai-be/internal/pkg/logger"
	"insightai-be/internal/repository/contract"
	"insightai-be/internal/repository/memory"
	"insightai-be/internal/repository/specification"
	"insightai-be/pkg/warehouse"
	"insightai-be/pkg/workflow"

	"github.com/google/uuid"
)

const defaultHistoryLimit = 20

// AnalysisEngine is the part of workflow.Engine the service drives.
type AnalysisEngine interface {
	Invoke(ctx context.Context, question string) (workflow.State, error)
	Stream(ctx context.Context, question string) <-chan workflow.Event
}

type IAnalyzeService interface {
	Analyze(ctx context.Context, req *dto.AnalyzeRequest) (*dto.AnalyzeResponse, error)
	Stream(ctx context.Context, req *dto.AnalyzeRequest) (uuid.UUID, <-chan dto.StreamEvent)
	Schema(ctx context.Context) (*dto.SchemaResponse, error)
	Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error)
	History(ctx context.Context, req *dto.HistoryRequest) (*dto.HistoryResponse, error)
	GetRun(ctx context.Context, id uuid.UUID) (*dto.RunStatusResponse, error)
}

type analyzeService struct {
	engine           AnalysisEngine
	schema           warehouse.SchemaProvider
	executor         warehouse.QueryExecutor
	runRepo          contract.AnalysisRunRepository
	progressRepo     *memory.ProgressRepository
	publisherService IPublisherService
	metrics          *metrics.Metrics
	logger           logger.ILogger
}

func NewAnalyzeService(
	engine AnalysisEngine,
	schema warehouse.SchemaProvider,
	executor warehouse.QueryExecutor,
	runRepo contract.AnalysisRunRepository,
	progressRepo *memory.ProgressRepository,
	publisherService IPublisherService,
	m *metrics.Metrics,
	log logger.ILogger,
) IAnalyzeService {
	return &analyzeService{
		engine:           engine,
		schema:           schema,
		executor:         executor,
		runRepo:          runRepo,
		progressRepo:     progressRepo,
		publisherService: publisherService,
		metrics:          m,
		logger:           log,
	}
}

func (s *analyzeService) Analyze(ctx context.Context, req *dto.AnalyzeRequest) (*dto.AnalyzeResponse, error) {
	runID := uuid.New()
	started := time.Now()

	s.logger.Info("AnalyzeService", "Run started", map[string]interface{}{"run_id": runID, "question": req.Question})

	final, err := s.engine.Invoke(ctx, req.Question)
	if err != nil {
		s.finish(runID, req.Question, nil, err, started)
		return nil, err
	}
	s.finish(runID, req.Question, &final, nil, started)

	return toAnalyzeResponse(runID, final), nil
}

// Stream starts a run and converts engine events into transport events. The
// returned channel closes after the result or error event, or once ctx is done.
func (s *analyzeService) Stream(ctx context.Context, req *dto.AnalyzeRequest) (uuid.UUID, <-chan dto.StreamEvent) {
	runID := uuid.New()
	started := time.Now()
	out := make(chan dto.StreamEvent)

	progress := &entity.RunProgress{Id: runID, Question: req.Question, StartedAt: started}
	s.progressRepo.Save(progress)

	s.logger.Info("AnalyzeService", "Streaming run started", map[string]interface{}{"run_id": runID, "question": req.Question})

	go func() {
		defer close(out)
		defer s.progressRepo.Finish(runID)

		forward := func(ev dto.StreamEvent) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for ev := range s.engine.Stream(ctx, req.Question) {
			switch ev.Type {
			case workflow.EventStep:
				progress.Node = string(ev.Node)
				progress.Steps = append(progress.Steps, ev.Message)
				s.progressRepo.Save(progress)

				if !forward(dto.StreamEvent{Type: string(ev.Type), Data: ev.Message, Node: string(ev.Node)}) {
					s.abandon(runID, req.Question, progress, started)
					return
				}

			case workflow.EventResult:
				final := *ev.Result
				progress.SqlQuery = final.Query
				progress.RetryCount = final.RetryCount
				s.progressRepo.Save(progress)
				s.finish(runID, req.Question, &final, nil, started)

				forward(dto.StreamEvent{Type: string(ev.Type), Data: toAnalyzeResponse(runID, final)})
				return

			case workflow.EventError:
				s.finish(runID, req.Question, nil, streamError(ev.Message), started)
				forward(dto.StreamEvent{Type: string(ev.Type), Data: ev.Message})
				return
			}
		}

		// Engine closed without a terminal event: the consumer went away.
		s.abandon(runID, req.Question, progress, started)
	}()

	return runID, out
}

func (s *analyzeService) Schema(ctx context.Context) (*dto.SchemaResponse, error) {
	schema, err := s.schema.Schema(ctx)
	s.metrics.ObserveSchemaFetch(err)
	if err != nil {
		return nil, err
	}
	return &dto.SchemaResponse{Schema: schema}, nil
}

func (s *analyzeService) Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	table, err := s.executor.Execute(ctx, req.Sql)
	if err != nil {
		return nil, err
	}
	return &dto.QueryResponse{Sql: req.Sql, Rows: toTableDTO(table)}, nil
}

func (s *analyzeService) History(ctx context.Context, req *dto.HistoryRequest) (*dto.HistoryResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var filters []specification.Specification
	if req.Status != "" {
		filters = append(filters, specification.ByRunStatus{Status: req.Status})
	}
	if req.ChartType != "" {
		filters = append(filters, specification.ByChartType{ChartType: req.ChartType})
	}
	if req.Days > 0 {
		filters = append(filters, specification.CreatedSince{Since: time.Now().AddDate(0, 0, -req.Days)})
	}

	total, err := s.runRepo.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	specs := append([]specification.Specification{specification.Newest(), specification.Pagination{Limit: limit}}, filters...)
	runs, err := s.runRepo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.RunSummary, 0, len(runs))
	for _, run := range runs {
		summary := toRunSummary(run)
		// The list view stays light; details come from GetRun.
		summary.Steps = nil
		summary.Visualization = nil
		result = append(result, summary)
	}
	return &dto.HistoryResponse{Total: total, Runs: result}, nil
}

// GetRun prefers the live snapshot and falls back to the recorded summary.
// Both are nil when the id is unknown.
func (s *analyzeService) GetRun(ctx context.Context, id uuid.UUID) (*dto.RunStatusResponse, error) {
	res := &dto.RunStatusResponse{}

	if p, ok := s.progressRepo.Get(id); ok {
		res.Live = &dto.RunProgress{
			Id:         p.Id,
			Question:   p.Question,
			Node:       p.Node,
			Done:       p.Done,
			SqlQuery:   p.SqlQuery,
			RetryCount: p.RetryCount,
			Steps:      p.Steps,
			StartedAt:  p.StartedAt,
		}
	}

	run, err := s.runRepo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if run != nil {
		res.Summary = toRunSummary(run)
	}

	if res.Live == nil && res.Summary == nil {
		return nil, nil
	}
	return res, nil
}

// finish records metrics and hands the summary to the run recorder. Exactly
// one of final and runErr is set.
func (s *analyzeService) finish(runID uuid.UUID, question string, final *workflow.State, runErr error, started time.Time) {
	elapsed := time.Since(started)

	summary := dto.RunSummary{
		Id:         runID,
		Question:   question,
		Status:     string(entity.RunStatusFailed),
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  started.UTC(),
	}

	if runErr != nil {
		summary.Error = runErr.Error()
	} else {
		summary.SqlQuery = final.Query
		summary.RetryCount = final.RetryCount
		summary.RowCount = final.Rows.Len()
		summary.Steps = final.Steps
		summary.Error = final.Error
		summary.Status = string(entity.RunStatusVisualized)
		if final.Failed() {
			summary.Status = string(entity.RunStatusExhausted)
		}
		if final.Visualization != nil {
			summary.ChartType = string(final.Visualization.ChartType)
			if raw, err := json.Marshal(final.Visualization); err == nil {
				summary.Visualization = raw
			}
		}
	}

	s.metrics.ObserveRun(summary.Status, summary.ChartType, summary.RetryCount, elapsed)

	logFields := map[string]interface{}{
		"run_id":      runID,
		"status":      summary.Status,
		"chart_type":  summary.ChartType,
		"retry_count": summary.RetryCount,
		"duration_ms": summary.DurationMs,
	}
	if summary.Status == string(entity.RunStatusVisualized) {
		s.logger.Info("AnalyzeService", "Run finished", logFields)
	} else {
		logFields["error"] = summary.Error
		s.logger.Warn("AnalyzeService", "Run finished without a chart", logFields)
	}

	if err := s.publisherService.Publish(context.Background(), summary); err != nil {
		s.logger.Error("AnalyzeService", "Failed to publish run summary", map[string]interface{}{"run_id": runID, "error": err.Error()})
	}
}

// abandon handles a stream whose consumer disconnected mid-run. Nothing is
// recorded in history; the progress snapshot expires on its own.
func (s *analyzeService) abandon(runID uuid.UUID, question string, progress *entity.RunProgress, started time.Time) {
	s.logger.Info("AnalyzeService", "Streaming run cancelled by client", map[string]interface{}{
		"run_id":     runID,
		"question":   question,
		"last_node":  progress.Node,
		"elapsed_ms": time.Since(started).Milliseconds(),
	})
}

type streamError string

func (e streamError) Error() string { return string(e) }

func toTableDTO(t warehouse.Table) dto.TableDTO {
	columns := t.Columns
	if columns == nil {
		columns = []string{}
	}
	rows := t.Rows
	if rows == nil {
		rows = [][]any{}
	}
	return dto.TableDTO{Columns: columns, Rows: rows}
}

func toAnalyzeResponse(runID uuid.UUID, s workflow.State) *dto.AnalyzeResponse {
	steps := s.Steps
	if steps == nil {
		steps = []string{}
	}
	return &dto.AnalyzeResponse{
		RunId:         runID,
		Question:      s.Question,
		SqlQuery:      s.Query,
		Rows:          toTableDTO(s.Rows),
		Visualization: s.Visualization,
		Steps:         steps,
		RetryCount:    s.RetryCount,
		Error:         s.Error,
	}
}

func toRunSummary(run *entity.AnalysisRun) *dto.RunSummary {
	return &dto.RunSummary{
		Id:            run.Id,
		Question:      run.Question,
		SqlQuery:      run.SqlQuery,
		Status:        string(run.Status),
		ChartType:     run.ChartType,
		RetryCount:    run.RetryCount,
		RowCount:      run.RowCount,
		Error:         run.Error,
		DurationMs:    run.DurationMs,
		CreatedAt:     run.CreatedAt,
		Steps:         run.Steps,
		Visualization: run.Visualization,
	}
}
