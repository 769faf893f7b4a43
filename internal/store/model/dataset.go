package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Training dataset lifecycle states. Failed is reachable from training only
// and may transition back to ready on retry.
const (
	DatasetStatusBuilding = "building"
	DatasetStatusReady    = "ready"
	DatasetStatusTraining = "training"
	DatasetStatusTrained  = "trained"
	DatasetStatusFailed   = "failed"
	DatasetStatusDeployed = "deployed"
)

type TrainingDataset struct {
	ID            uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     *time.Time
	Name          string  `gorm:"not null;uniqueIndex"`
	Status        string  `gorm:"not null;type:VARCHAR(100)"`
	TotalItems    int     `gorm:"not null;default:0"`
	ReviewedItems int     `gorm:"not null;default:0"`
	AccuracyRate  float64 `gorm:"not null;default:0"`
	ActiveJobID   *int64
	ModelVersion  string
	IsActive      bool `gorm:"not null;default:false"`
	LastError     string
}

type TrainingDatasetList []TrainingDataset

func (t TrainingDataset) String() string {
	val, _ := json.Marshal(t)
	return string(val)
}
