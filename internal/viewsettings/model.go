package viewsettings

import (
	"time"

	"lumeer-engine/internal/domain"
)

// Record is a user's personal settings for one view.
type Record struct {
	ViewID    string              `gorm:"primaryKey;size:64"`
	UserID    string              `gorm:"primaryKey;size:64"`
	Settings  domain.ViewSettings `gorm:"serializer:json;type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Record) TableName() string {
	return "view_settings"
}
