package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base holds the columns every content table shares. Ids are assigned by the
// application so they are known before the insert returns.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
