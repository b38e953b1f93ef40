package models

import "time"

// PerevalAdded is the aggregate root: one submitted mountain-pass crossing
// in the 'pereval_added' table. AddTime is kept as the submitter-supplied
// text in the fixed `YYYY-MM-DD HH:MM:SS` format so it round-trips exactly;
// DateAdded is set by the store at insert and never changes.
type PerevalAdded struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	BeautyTitle *string   `gorm:"size:255" json:"beauty_title,omitempty"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	OtherTitles *string   `gorm:"size:255" json:"other_titles,omitempty"`
	Connect     *string   `gorm:"type:text" json:"connect,omitempty"`
	AddTime     string    `gorm:"size:32;not null" json:"add_time"`
	DateAdded   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"date_added"`
	Status      Status    `gorm:"size:16;not null;default:'new'" json:"status"`

	// season difficulty grades, each independently optional ('' when unset)
	LevelWinter string `gorm:"size:8;not null;default:''" json:"level_winter"`
	LevelSummer string `gorm:"size:8;not null;default:''" json:"level_summer"`
	LevelAutumn string `gorm:"size:8;not null;default:''" json:"level_autumn"`
	LevelSpring string `gorm:"size:8;not null;default:''" json:"level_spring"`

	UserID   int64 `gorm:"not null;index" json:"user_id"`
	CoordsID int64 `gorm:"not null" json:"coords_id"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID" json:"-"`
	Coords Coords `gorm:"foreignKey:CoordsID" json:"-"`
}

// TableName explicitly sets the table name for GORM.
func (PerevalAdded) TableName() string {
	return "pereval_added"
}
