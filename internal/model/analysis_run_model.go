package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AnalysisRun is the summary row recorded for every finished question.
type AnalysisRun struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Question      string         `gorm:"type:text;not null"`
	SqlQuery      string         `gorm:"type:text"`
	Status        string         `gorm:"type:varchar(20);not null;index"`
	ChartType     string         `gorm:"type:varchar(30);index"`
	RetryCount    int            `gorm:"not null"`
	RowCount      int            `gorm:"not null"`
	Steps         datatypes.JSON `gorm:"type:jsonb"`
	Visualization datatypes.JSON `gorm:"type:jsonb"`
	Error         string         `gorm:"type:text"`
	DurationMs    int64          `gorm:"not null"`
	CreatedAt     time.Time      `gorm:"not null;index"`
}

func (AnalysisRun) TableName() string {
	return "analysis_runs"
}
