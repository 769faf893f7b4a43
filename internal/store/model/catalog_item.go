package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID   uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	Name string    `gorm:"not null;uniqueIndex"`
}

type CatalogItem struct {
	ID            uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DocumentID    uuid.UUID `gorm:"not null;type:VARCHAR(255);index:catalog_items_document_id_idx"`
	CategoryID    uuid.UUID `gorm:"not null;type:VARCHAR(255)"`
	Name          string    `gorm:"not null"`
	Description   string    `gorm:"not null"`
	Difficulty    string    `gorm:"not null;type:VARCHAR(100)"`
	Confidence    float64   `gorm:"not null"`
	LocationStart *int
	LocationEnd   *int
}

type CatalogItemList []CatalogItem

func (c CatalogItem) String() string {
	val, _ := json.Marshal(c)
	return string(val)
}
