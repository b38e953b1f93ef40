package models

// PerevalImage stores one attached image as an opaque base64 payload in the
// 'pereval_images' table. Any data-URI prefix is stripped before the row is
// written; the payload is never decoded or re-encoded by this service.
type PerevalImage struct {
	ID    int64   `gorm:"primaryKey" json:"id"`
	Data  string  `gorm:"type:text;not null" json:"data"`
	Title *string `gorm:"size:255" json:"title,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (PerevalImage) TableName() string {
	return "pereval_images"
}

// PerevalAddedImage links an image to the pereval record that owns it.
// On update with a new image set, all rows for the record are deleted and
// replaced together with the image rows they reference.
type PerevalAddedImage struct {
	PerevalID int64 `gorm:"primaryKey;autoIncrement:false" json:"pereval_id"`
	ImageID   int64 `gorm:"primaryKey;autoIncrement:false" json:"image_id"`
}

// TableName explicitly sets the table name for GORM.
func (PerevalAddedImage) TableName() string {
	return "pereval_added_images"
}
