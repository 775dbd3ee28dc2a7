package models

import (
	"time"

	"gorm.io/datatypes"
)

type RunStatus string

const (
	RunRunning   RunStatus = "RUNNING"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
)

// WorkflowRun trace une exécution de workflow identifiée par son run ID
type WorkflowRun struct {
	ID         string         `json:"id" gorm:"type:varchar(64);primary_key"`
	Workflow   string         `json:"workflow" gorm:"type:varchar(64);not null;index"`
	Status     RunStatus      `json:"status" gorm:"type:varchar(20);not null;index"`
	Attempt    int            `json:"attempt" gorm:"default:1"`
	Error      string         `json:"error,omitempty" gorm:"type:text"`
	Output     datatypes.JSON `json:"output,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	FinishedAt *time.Time     `json:"finishedAt,omitempty"`
}

func (WorkflowRun) TableName() string {
	return "workflow_runs"
}

// StepCheckpoint mémorise le résultat d'une étape pour le rejeu
type StepCheckpoint struct {
	ID        uint           `gorm:"primaryKey"`
	RunID     string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_checkpoint_run_step,priority:1"`
	StepName  string         `gorm:"type:varchar(128);not null;uniqueIndex:idx_checkpoint_run_step,priority:2"`
	Result    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time
}

func (StepCheckpoint) TableName() string {
	return "step_checkpoints"
}
