package contract

import (
	"context"

	"insightai-be/internal/entity"
	"insightai-be/internal/repository/specification"
)

type AnalysisRunRepository interface {
	Create(ctx context.Context, run *entity.AnalysisRun) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AnalysisRun, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AnalysisRun, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
