package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Relationship kinds ordered by descending similarity.
const (
	RelationshipDuplicate = "duplicate"
	RelationshipVariation = "variation"
	RelationshipSimilar   = "similar"
	RelationshipRelated   = "related"
)

type CrossReference struct {
	ID               uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	SourceItemID     uuid.UUID `gorm:"not null;type:VARCHAR(255);index:cross_references_source_idx"`
	TargetItemID     uuid.UUID `gorm:"not null;type:VARCHAR(255);index:cross_references_target_idx"`
	RelationshipKind string    `gorm:"not null;type:VARCHAR(100)"`
	SimilarityScore  float64   `gorm:"not null"`
}

type CrossReferenceList []CrossReference

func (c CrossReference) String() string {
	val, _ := json.Marshal(c)
	return string(val)
}
