package implementation

import (
	"context"
	"errors"

	"insightai-be/internal/entity"
	"insightai-be/internal/mapper"
	"insightai-be/internal/model"
	"insightai-be/internal/repository/contract"
	"insightai-be/internal/repository/specification"

	"gorm.io/gorm"
)

type AnalysisRunRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AnalysisRunMapper
}

func NewAnalysisRunRepository(db *gorm.DB) contract.AnalysisRunRepository {
	return &AnalysisRunRepositoryImpl{
		db:     db,
		mapper: mapper.NewAnalysisRunMapper(),
	}
}

func (r *AnalysisRunRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AnalysisRunRepositoryImpl) Create(ctx context.Context, run *entity.AnalysisRun) error {
	m := r.mapper.ToModel(run)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*run = *r.mapper.ToEntity(m)
	return nil
}

func (r *AnalysisRunRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AnalysisRun, error) {
	var m model.AnalysisRun
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *AnalysisRunRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AnalysisRun, error) {
	var models []*model.AnalysisRun
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *AnalysisRunRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.AnalysisRun{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
