package model

import (
	"github.com/google/uuid"
)

// TaskDependency means the task TaskID cannot be completed before DependsOnID.
type TaskDependency struct {
	TaskID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	DependsOnID uuid.UUID `gorm:"type:uuid;primaryKey;index"`

	Task      Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	DependsOn Task `gorm:"foreignKey:DependsOnID;constraint:OnDelete:CASCADE"`
}
