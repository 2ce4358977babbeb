package mapper

import (
	"encoding/json"

	"insightai-be/internal/entity"
	"insightai-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AnalysisRunMapper struct{}

func NewAnalysisRunMapper() *AnalysisRunMapper {
	return &AnalysisRunMapper{}
}

func (m *AnalysisRunMapper) ToEntity(r *model.AnalysisRun) *entity.AnalysisRun {
	if r == nil {
		return nil
	}

	var steps []string
	if len(r.Steps) > 0 {
		_ = json.Unmarshal(r.Steps, &steps)
	}

	var viz json.RawMessage
	if len(r.Visualization) > 0 {
		viz = json.RawMessage(r.Visualization)
	}

	return &entity.AnalysisRun{
		Id:            r.Id,
		Question:      r.Question,
		SqlQuery:      r.SqlQuery,
		Status:        entity.RunStatus(r.Status),
		ChartType:     r.ChartType,
		RetryCount:    r.RetryCount,
		RowCount:      r.RowCount,
		Steps:         steps,
		Visualization: viz,
		Error:         r.Error,
		DurationMs:    r.DurationMs,
		CreatedAt:     r.CreatedAt,
	}
}

func (m *AnalysisRunMapper) ToModel(r *entity.AnalysisRun) *model.AnalysisRun {
	if r == nil {
		return nil
	}

	id := r.Id
	if id == uuid.Nil {
		id = uuid.New()
	}

	steps := r.Steps
	if steps == nil {
		steps = []string{}
	}
	stepsJSON, _ := json.Marshal(steps)

	var viz datatypes.JSON
	if len(r.Visualization) > 0 {
		viz = datatypes.JSON(r.Visualization)
	}

	return &model.AnalysisRun{
		Id:            id,
		Question:      r.Question,
		SqlQuery:      r.SqlQuery,
		Status:        string(r.Status),
		ChartType:     r.ChartType,
		RetryCount:    r.RetryCount,
		RowCount:      r.RowCount,
		Steps:         datatypes.JSON(stepsJSON),
		Visualization: viz,
		Error:         r.Error,
		DurationMs:    r.DurationMs,
		CreatedAt:     r.CreatedAt,
	}
}

func (m *AnalysisRunMapper) ToEntities(runs []*model.AnalysisRun) []*entity.AnalysisRun {
	out := make([]*entity.AnalysisRun, 0, len(runs))
	for _, r := range runs {
		out = append(out, m.ToEntity(r))
	}
	return out
}
