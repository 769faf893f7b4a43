package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Document struct {
	ID                   uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	CreatedAt            time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt            *time.Time
	Title                string `gorm:"not null"`
	SourceLocation       string `gorm:"not null;uniqueIndex"`
	ExtractedText        *string
	ExtractionConfidence float64
	CharacterCount       int
	ProcessedAt          *time.Time
	Items                []CatalogItem `gorm:"foreignKey:DocumentID;references:ID;constraint:OnDelete:CASCADE;"`
}

type DocumentList []Document

// HasExtractedText reports whether extraction completed for this document.
// The invariant is extracted_text non-null iff processed_at non-null.
func (d Document) HasExtractedText() bool {
	return d.ExtractedText != nil && d.ProcessedAt != nil
}

func (d Document) String() string {
	val, _ := json.Marshal(d)
	return string(val)
}
