package repository

import (
	"time"

	"github.com/stena13/Final-project/models"
)

// Pereval is the denormalized read view of one record: submitter fields
// flattened under "user", location under "coords" (rendered as strings),
// season grades under "level" and the attached image list.
type Pereval struct {
	ID          int64         `json:"id"`
	BeautyTitle *string       `json:"beauty_title"`
	Title       string        `json:"title"`
	OtherTitles *string       `json:"other_titles"`
	Connect     *string       `json:"connect"`
	AddTime     string        `json:"add_time"`
	DateAdded   time.Time     `json:"date_added"`
	Status      models.Status `json:"status"`
	User        SubmitterView `json:"user"`
	Coords      CoordsView    `json:"coords"`
	Level       LevelView     `json:"level"`
	Images      []ImageView   `json:"images"`
}

type SubmitterView struct {
	Email string  `json:"email"`
	Fam   string  `json:"fam"`
	Name  string  `json:"name"`
	Otc   *string `json:"otc"`
	Phone string  `json:"phone"`
}

// CoordsView renders numeric location fields back as the strings they were
// submitted as.
type CoordsView struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Height    string `json:"height"`
}

// LevelView always carries all four seasons; unset grades are "".
type LevelView struct {
	Winter string `json:"winter"`
	Summer string `json:"summer"`
	Autumn string `json:"autumn"`
	Spring string `json:"spring"`
}

type ImageView struct {
	ID    int64   `json:"id"`
	Data  string  `json:"data"` // base64, no data-URI prefix
	Title *string `json:"title"`
}
