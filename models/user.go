package models

// User represents a submitter in the 'users' table. Email is the natural
// key: repeated submissions with the same email update the displayed
// name/phone fields in place instead of creating a second row.
type User struct {
	ID    int64   `gorm:"primaryKey" json:"id"`
	Email string  `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Fam   string  `gorm:"size:255;not null" json:"fam"`
	Name  string  `gorm:"size:255;not null" json:"name"`
	Otc   *string `gorm:"size:255" json:"otc,omitempty"` // patronymic, optional
	Phone string  `gorm:"size:64;not null" json:"phone"`
}

// TableName explicitly sets the table name for GORM.
func (User) TableName() string {
	return "users"
}
