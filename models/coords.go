package models

// Coords holds the geographic location of a single pereval record in the
// 'coords' table. Each row is owned by exactly one record: it is created
// per submission and overwritten in place on edit.
type Coords struct {
	ID        int64   `gorm:"primaryKey" json:"id"`
	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`
	Height    int     `gorm:"not null" json:"height"` // meters
}

// TableName explicitly sets the table name for GORM.
func (Coords) TableName() string {
	return "coords"
}
