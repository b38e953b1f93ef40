// Package validation checks inbound pereval submissions before they reach
// the repository. Tag-based rules run through go-playground/validator;
// the phone/coordinate/time rules the tags cannot express run as custom
// checks afterwards. All failures come back as field-level errors.
package validation

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// AddTimeLayout is the only accepted format for the add_time field.
const AddTimeLayout = "2006-01-02 15:04:05"

// minPhoneDigits is the minimum number of digits a phone must contain after
// all formatting characters are stripped.
const minPhoneDigits = 10

var validate = validator.New()

// FieldError names one offending field and the reason it was rejected.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type UserPayload struct {
	Email string  `json:"email" validate:"required,email"`
	Fam   string  `json:"fam" validate:"required,max=255"`
	Name  string  `json:"name" validate:"required,max=255"`
	Otc   *string `json:"otc" validate:"omitempty,max=255"`
	Phone string  `json:"phone" validate:"required"`
}

type CoordsPayload struct {
	Latitude  string `json:"latitude" validate:"required"`
	Longitude string `json:"longitude" validate:"required"`
	Height    string `json:"height" validate:"required"`
}

// LevelPayload carries the four season grades; each is independently
// optional and defaults to the empty string.
type LevelPayload struct {
	Winter string `json:"winter"`
	Summer string `json:"summer"`
	Autumn string `json:"autumn"`
	Spring string `json:"spring"`
}

type ImagePayload struct {
	Data  string  `json:"data" validate:"required"` // base64, optionally with data-URI prefix
	Title *string `json:"title"`
}

// PerevalSubmission is the full POST /submitData payload.
type PerevalSubmission struct {
	BeautyTitle *string        `json:"beauty_title"`
	Title       string         `json:"title" validate:"required,max=255"`
	OtherTitles *string        `json:"other_titles"`
	Connect     *string        `json:"connect"`
	AddTime     string         `json:"add_time" validate:"required"`
	User        UserPayload    `json:"user"`
	Coords      CoordsPayload  `json:"coords"`
	Level       LevelPayload   `json:"level"`
	Images      []ImagePayload `json:"images"`
}

// Validate returns the full list of field errors for a submission, or nil
// when the payload is acceptable. Nothing is persisted on failure.
func (p *PerevalSubmission) Validate() []FieldError {
	fieldErrors := runTagValidation(p)

	if p.User.Phone != "" {
		fieldErrors = appendPhoneError(fieldErrors, "user.phone", p.User.Phone)
	}
	if p.Coords.Latitude != "" {
		fieldErrors = appendCoordinateError(fieldErrors, "coords.latitude", p.Coords.Latitude)
	}
	if p.Coords.Longitude != "" {
		fieldErrors = appendCoordinateError(fieldErrors, "coords.longitude", p.Coords.Longitude)
	}
	if p.Coords.Height != "" {
		fieldErrors = appendHeightError(fieldErrors, "coords.height", p.Coords.Height)
	}
	if p.AddTime != "" {
		fieldErrors = appendAddTimeError(fieldErrors, "add_time", p.AddTime)
	}
	for i, img := range p.Images {
		if img.Data == "" {
			fieldErrors = append(fieldErrors, FieldError{
				Field: "images[" + strconv.Itoa(i) + "].data",
				Error: "is required",
			})
		}
	}

	return fieldErrors
}

// LevelUpdate mirrors LevelPayload with pointer fields so PATCH can tell an
// absent grade from one being cleared to "".
type LevelUpdate struct {
	Winter *string `json:"winter"`
	Summer *string `json:"summer"`
	Autumn *string `json:"autumn"`
	Spring *string `json:"spring"`
}

// PerevalUpdate is the partial PATCH /submitData/{id} payload. Absent fields
// stay untouched. The user block is accepted but ignored: submitter identity
// is immutable after creation.
type PerevalUpdate struct {
	BeautyTitle *string        `json:"beauty_title"`
	Title       *string        `json:"title"`
	OtherTitles *string        `json:"other_titles"`
	Connect     *string        `json:"connect"`
	AddTime     *string        `json:"add_time"`
	User        *UserPayload   `json:"user"`
	Coords      *CoordsPayload `json:"coords"`
	Level       *LevelUpdate   `json:"level"`
	Images      []ImagePayload `json:"images"`
}

// Validate checks only the fields present in the partial payload.
func (p *PerevalUpdate) Validate() []FieldError {
	var fieldErrors []FieldError

	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		fieldErrors = append(fieldErrors, FieldError{Field: "title", Error: "must not be empty"})
	}
	if p.AddTime != nil {
		fieldErrors = appendAddTimeError(fieldErrors, "add_time", *p.AddTime)
	}
	if p.Coords != nil {
		fieldErrors = appendCoordinateError(fieldErrors, "coords.latitude", p.Coords.Latitude)
		fieldErrors = appendCoordinateError(fieldErrors, "coords.longitude", p.Coords.Longitude)
		fieldErrors = appendHeightError(fieldErrors, "coords.height", p.Coords.Height)
	}
	for i, img := range p.Images {
		if img.Data == "" {
			fieldErrors = append(fieldErrors, FieldError{
				Field: "images[" + strconv.Itoa(i) + "].data",
				Error: "is required",
			})
		}
	}

	return fieldErrors
}

// ValidateEmail checks a bare email value, as used for the
// GET /submitData/?user__email= query parameter.
func ValidateEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

func runTagValidation(v interface{}) []FieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "payload", Error: err.Error()}}
	}

	fieldErrors := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fieldErrors = append(fieldErrors, FieldError{
			Field: namespaceToField(fe.Namespace()),
			Error: tagMessage(fe),
		})
	}
	return fieldErrors
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must not exceed " + fe.Param() + " characters"
	default:
		if fe.Param() != "" {
			return fe.Tag() + ":" + fe.Param()
		}
		return fe.Tag()
	}
}

// namespaceToField turns a validator namespace like
// "PerevalSubmission.User.Email" into the JSON-ish path "user.email".
func namespaceToField(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:] // drop the root struct name
	}
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, ".")
}

func appendPhoneError(fieldErrors []FieldError, field, phone string) []FieldError {
	digits := 0
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits < minPhoneDigits {
		fieldErrors = append(fieldErrors, FieldError{
			Field: field,
			Error: "must contain at least 10 digits",
		})
	}
	return fieldErrors
}

func appendCoordinateError(fieldErrors []FieldError, field, value string) []FieldError {
	// no range bound: the store accepts any parseable coordinate
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		fieldErrors = append(fieldErrors, FieldError{
			Field: field,
			Error: "must be a number",
		})
	}
	return fieldErrors
}

func appendHeightError(fieldErrors []FieldError, field, value string) []FieldError {
	// a leading minus sign is accepted: heights below sea level are valid
	if _, err := strconv.Atoi(value); err != nil {
		fieldErrors = append(fieldErrors, FieldError{
			Field: field,
			Error: "must be an integer",
		})
	}
	return fieldErrors
}

func appendAddTimeError(fieldErrors []FieldError, field, value string) []FieldError {
	if _, err := time.Parse(AddTimeLayout, value); err != nil {
		fieldErrors = append(fieldErrors, FieldError{
			Field: field,
			Error: "must match format YYYY-MM-DD HH:MM:SS",
		})
	}
	return fieldErrors
}
