package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CorrectedFields holds optional human overrides for a catalog item.
type CorrectedFields struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Difficulty  *string `json:"difficulty,omitempty"`
	Category    *string `json:"category,omitempty"`
}

type FeedbackRecord struct {
	ID        uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt *time.Time
	ItemID    uuid.UUID `gorm:"not null;type:VARCHAR(255);uniqueIndex:feedback_records_item_idx"`
	// IsAccurate is tri-state: nil means the review is still pending.
	IsAccurate      *bool
	CorrectedFields *JSONField[CorrectedFields] `gorm:"type:jsonb"`
	UseForTraining  bool                        `gorm:"not null;default:true"`
}

type FeedbackRecordList []FeedbackRecord

// Reviewed reports whether this record counts toward training readiness.
func (f FeedbackRecord) Reviewed() bool {
	return f.IsAccurate != nil && f.UseForTraining
}

func (f FeedbackRecord) String() string {
	val, _ := json.Marshal(f)
	return string(val)
}
