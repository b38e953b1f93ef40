package models

// Status marks where a pereval record is in the moderation lifecycle.
// Records are created as StatusNew; moderators move them to one of the
// terminal statuses through a separate process, never through this API.
type Status string

const (
	StatusNew      Status = "new"
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// IsEditable reports whether the record may still be amended via the API.
// Once a record leaves "new" it is closed for editing permanently.
func (s Status) IsEditable() bool {
	return s == StatusNew
}

// IsValid reports whether s is one of the known lifecycle statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}
