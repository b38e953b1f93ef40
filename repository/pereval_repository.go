package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/stena13/Final-project/models"
	"github.com/stena13/Final-project/validation"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ErrPerevalNotFound is returned when no record exists for the given id.
var ErrPerevalNotFound = errors.New("pereval record not found")

// NotEditableError is returned by Update when the record has left status
// "new" and is permanently closed for editing.
type NotEditableError struct {
	Status models.Status
}

func (e *NotEditableError) Error() string {
	return fmt.Sprintf("record in status %q is not editable", e.Status)
}

// PerevalRepository runs the four domain operations against the shared
// connection pool. Every write is a single transaction: on any step failure
// the whole transaction rolls back and no partial state survives.
type PerevalRepository struct {
	DB *sql.DB
}

// NewPerevalRepository creates a new instance of PerevalRepository
func NewPerevalRepository(db *sql.DB) *PerevalRepository {
	return &PerevalRepository{DB: db}
}

// stripDataURI removes a leading `data:image/...;base64,` header so only the
// raw base64 payload is stored. Payloads without the header pass through.
func stripDataURI(data string) string {
	if strings.HasPrefix(data, "data:image") {
		if idx := strings.Index(data, ","); idx >= 0 {
			return data[idx+1:]
		}
	}
	return data
}

func (r *PerevalRepository) Create(ctx context.Context, sub *validation.PerevalSubmission) (int64, error) {
	latitude, err := strconv.ParseFloat(sub.Coords.Latitude, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid latitude %q: %w", sub.Coords.Latitude, err)
	}
	longitude, err := strconv.ParseFloat(sub.Coords.Longitude, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid longitude %q: %w", sub.Coords.Longitude, err)
	}
	height, err := strconv.Atoi(sub.Coords.Height)
	if err != nil {
		return 0, fmt.Errorf("invalid height %q: %w", sub.Coords.Height, err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction for Create: %w", err)
	}
	defer tx.Rollback()

	userID, err := upsertUser(ctx, tx, &sub.User)
	if err != nil {
		return 0, err
	}

	coordsQB := psql.Insert("coords").
		Columns("latitude", "longitude", "height").
		Values(latitude, longitude, height).
		Suffix("RETURNING id")
	sqlStr, args, err := coordsQB.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for coords insert: %w", err)
	}
	var coordsID int64
	if err := tx.QueryRowContext(ctx, sqlStr, args...).Scan(&coordsID); err != nil {
		return 0, fmt.Errorf("failed to insert coords: %w", err)
	}

	perevalQB := psql.Insert("pereval_added").
		Columns("beauty_title", "title", "other_titles", "connect", "add_time",
			"status", "level_winter", "level_summer", "level_autumn", "level_spring",
			"user_id", "coords_id").
		Values(sub.BeautyTitle, sub.Title, sub.OtherTitles, sub.Connect, sub.AddTime,
			string(models.StatusNew), sub.Level.Winter, sub.Level.Summer, sub.Level.Autumn, sub.Level.Spring,
			userID, coordsID).
		Suffix("RETURNING id")
	sqlStr, args, err = perevalQB.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for pereval insert: %w", err)
	}
	var perevalID int64
	if err := tx.QueryRowContext(ctx, sqlStr, args...).Scan(&perevalID); err != nil {
		return 0, fmt.Errorf("failed to insert pereval: %w", err)
	}

	if err := insertImages(ctx, tx, perevalID, sub.Images); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit Create transaction: %w", err)
	}
	return perevalID, nil
}

// upsertUser inserts the submitter or, on email conflict, overwrites the
// displayed name/phone fields. Email is the sole natural key, so repeated
// submissions never create duplicate rows.
func upsertUser(ctx context.Context, tx *sql.Tx, user *validation.UserPayload) (int64, error) {
	queryBuilder := psql.Insert("users").
		Columns("email", "fam", "name", "otc", "phone").
		Values(user.Email, user.Fam, user.Name, user.Otc, user.Phone).
		Suffix("ON CONFLICT (email) DO UPDATE SET").
		Suffix("fam = excluded.fam,").
		Suffix("name = excluded.name,").
		Suffix("otc = excluded.otc,").
		Suffix("phone = excluded.phone").
		Suffix("RETURNING id")
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for user upsert: %w", err)
	}
	var userID int64
	if err := tx.QueryRowContext(ctx, sqlStr, args...).Scan(&userID); err != nil {
		return 0, fmt.Errorf("failed to upsert user %s: %w", user.Email, err)
	}
	return userID, nil
}

func insertImages(ctx context.Context, tx *sql.Tx, perevalID int64, images []validation.ImagePayload) error {
	for _, img := range images {
		imageQB := psql.Insert("pereval_images").
			Columns("data", "title").
			Values(stripDataURI(img.Data), img.Title).
			Suffix("RETURNING id")
		sqlStr, args, err := imageQB.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build SQL for image insert: %w", err)
		}
		var imageID int64
		if err := tx.QueryRowContext(ctx, sqlStr, args...).Scan(&imageID); err != nil {
			return fmt.Errorf("failed to insert image for pereval %d: %w", perevalID, err)
		}

		linkQB := psql.Insert("pereval_added_images").
			Columns("pereval_id", "image_id").
			Values(perevalID, imageID)
		sqlStr, args, err = linkQB.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build SQL for image link insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("failed to link image %d to pereval %d: %w", imageID, perevalID, err)
		}
	}
	return nil
}

// perevalSelect is the shared base query for the denormalized view.
func perevalSelect() sq.SelectBuilder {
	return psql.Select(
		"p.id", "p.beauty_title", "p.title", "p.other_titles", "p.connect",
		"p.add_time", "p.date_added", "p.status",
		"p.level_winter", "p.level_summer", "p.level_autumn", "p.level_spring",
		"u.email", "u.fam", "u.name", "u.otc", "u.phone",
		"c.latitude", "c.longitude", "c.height").
		From("pereval_added p").
		Join("users u ON u.id = p.user_id").
		Join("coords c ON c.id = p.coords_id")
}

func scanPereval(row sq.RowScanner) (*Pereval, error) {
	var p Pereval
	var status string
	var latitude, longitude float64
	var height int
	err := row.Scan(
		&p.ID, &p.BeautyTitle, &p.Title, &p.OtherTitles, &p.Connect,
		&p.AddTime, &p.DateAdded, &status,
		&p.Level.Winter, &p.Level.Summer, &p.Level.Autumn, &p.Level.Spring,
		&p.User.Email, &p.User.Fam, &p.User.Name, &p.User.Otc, &p.User.Phone,
		&latitude, &longitude, &height)
	if err != nil {
		return nil, err
	}
	p.Status = models.Status(status)
	p.Coords = CoordsView{
		Latitude:  strconv.FormatFloat(latitude, 'f', -1, 64),
		Longitude: strconv.FormatFloat(longitude, 'f', -1, 64),
		Height:    strconv.Itoa(height),
	}
	return &p, nil
}

func (r *PerevalRepository) GetByID(ctx context.Context, id int64) (*Pereval, error) {
	queryBuilder := perevalSelect().Where(sq.Eq{"p.id": id}).Limit(1)
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for GetByID: %w", err)
	}

	pereval, err := scanPereval(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPerevalNotFound
		}
		return nil, fmt.Errorf("failed to query pereval %d: %w", id, err)
	}

	images, err := r.listImages(ctx, pereval.ID)
	if err != nil {
		return nil, err
	}
	pereval.Images = images
	return pereval, nil
}

func (r *PerevalRepository) listImages(ctx context.Context, perevalID int64) ([]ImageView, error) {
	queryBuilder := psql.Select("i.id", "i.data", "i.title").
		From("pereval_images i").
		Join("pereval_added_images pai ON pai.image_id = i.id").
		Where(sq.Eq{"pai.pereval_id": perevalID}).
		OrderBy("i.id ASC")
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for listImages: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query images for pereval %d: %w", perevalID, err)
	}
	defer rows.Close()

	images := []ImageView{}
	for rows.Next() {
		var img ImageView
		if err := rows.Scan(&img.ID, &img.Data, &img.Title); err != nil {
			return nil, fmt.Errorf("failed to scan image row for pereval %d: %w", perevalID, err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating image rows for pereval %d: %w", perevalID, err)
	}
	return images, nil
}

func (r *PerevalRepository) Update(ctx context.Context, id int64, upd *validation.PerevalUpdate) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for Update: %w", err)
	}
	defer tx.Rollback()

	statusQB := psql.Select("status", "coords_id").
		From("pereval_added").
		Where(sq.Eq{"id": id})
	sqlStr, args, err := statusQB.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for status lookup: %w", err)
	}
	var status string
	var coordsID int64
	if err := tx.QueryRowContext(ctx, sqlStr, args...).Scan(&status, &coordsID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPerevalNotFound
		}
		return fmt.Errorf("failed to look up status for pereval %d: %w", id, err)
	}
	if !models.Status(status).IsEditable() {
		return &NotEditableError{Status: models.Status(status)}
	}

	if upd.Coords != nil {
		if err := updateCoords(ctx, tx, coordsID, upd.Coords); err != nil {
			return err
		}
	}

	if err := updatePerevalFields(ctx, tx, id, upd); err != nil {
		return err
	}

	if len(upd.Images) > 0 {
		if err := replaceImages(ctx, tx, id, upd.Images); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit Update transaction for pereval %d: %w", id, err)
	}
	return nil
}

// updateCoords overwrites the location row in place. Values were already
// checked by validation, so parse failures here indicate a programming error.
func updateCoords(ctx context.Context, tx *sql.Tx, coordsID int64, coords *validation.CoordsPayload) error {
	latitude, err := strconv.ParseFloat(coords.Latitude, 64)
	if err != nil {
		return fmt.Errorf("invalid latitude %q: %w", coords.Latitude, err)
	}
	longitude, err := strconv.ParseFloat(coords.Longitude, 64)
	if err != nil {
		return fmt.Errorf("invalid longitude %q: %w", coords.Longitude, err)
	}
	height, err := strconv.Atoi(coords.Height)
	if err != nil {
		return fmt.Errorf("invalid height %q: %w", coords.Height, err)
	}

	queryBuilder := psql.Update("coords").
		Set("latitude", latitude).
		Set("longitude", longitude).
		Set("height", height).
		Where(sq.Eq{"id": coordsID})
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for coords update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to update coords %d: %w", coordsID, err)
	}
	return nil
}

// updatePerevalFields overwrites only the columns present in the partial
// payload. Submitter fields are never touched here: user identity is
// immutable through this endpoint.
func updatePerevalFields(ctx context.Context, tx *sql.Tx, id int64, upd *validation.PerevalUpdate) error {
	queryBuilder := psql.Update("pereval_added").Where(sq.Eq{"id": id})
	hasUpdates := false

	setIfPresent := func(column string, value *string) {
		if value != nil {
			queryBuilder = queryBuilder.Set(column, *value)
			hasUpdates = true
		}
	}
	setIfPresent("beauty_title", upd.BeautyTitle)
	setIfPresent("title", upd.Title)
	setIfPresent("other_titles", upd.OtherTitles)
	setIfPresent("connect", upd.Connect)
	setIfPresent("add_time", upd.AddTime)
	if upd.Level != nil {
		setIfPresent("level_winter", upd.Level.Winter)
		setIfPresent("level_summer", upd.Level.Summer)
		setIfPresent("level_autumn", upd.Level.Autumn)
		setIfPresent("level_spring", upd.Level.Spring)
	}

	if !hasUpdates {
		return nil
	}

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for pereval update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to update pereval %d: %w", id, err)
	}
	return nil
}

// replaceImages deletes the record's entire image set and inserts the new
// one. Replacement is all-or-nothing, never a merge.
func replaceImages(ctx context.Context, tx *sql.Tx, perevalID int64, images []validation.ImagePayload) error {
	idQB := psql.Select("image_id").
		From("pereval_added_images").
		Where(sq.Eq{"pereval_id": perevalID})
	sqlStr, args, err := idQB.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for image id lookup: %w", err)
	}
	rows, err := tx.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to query image ids for pereval %d: %w", perevalID, err)
	}
	var oldIDs []int64
	for rows.Next() {
		var imageID int64
		if err := rows.Scan(&imageID); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan image id for pereval %d: %w", perevalID, err)
		}
		oldIDs = append(oldIDs, imageID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating image ids for pereval %d: %w", perevalID, err)
	}

	linkDelQB := psql.Delete("pereval_added_images").Where(sq.Eq{"pereval_id": perevalID})
	sqlStr, args, err = linkDelQB.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for image link delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to delete image links for pereval %d: %w", perevalID, err)
	}

	if len(oldIDs) > 0 {
		imgDelQB := psql.Delete("pereval_images").Where(sq.Eq{"id": oldIDs})
		sqlStr, args, err = imgDelQB.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build SQL for image delete: %w", err)
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("failed to delete images for pereval %d: %w", perevalID, err)
		}
	}

	return insertImages(ctx, tx, perevalID, images)
}

func (r *PerevalRepository) ListByEmail(ctx context.Context, email string) ([]Pereval, error) {
	queryBuilder := perevalSelect().
		Where(sq.Eq{"u.email": email}).
		OrderBy("p.date_added DESC", "p.id DESC")
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListByEmail: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query perevals for %s: %w", email, err)
	}
	defer rows.Close()

	perevals := []Pereval{}
	for rows.Next() {
		pereval, err := scanPereval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pereval row for %s: %w", email, err)
		}
		perevals = append(perevals, *pereval)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pereval rows for %s: %w", email, err)
	}

	for i := range perevals {
		images, err := r.listImages(ctx, perevals[i].ID)
		if err != nil {
			return nil, err
		}
		perevals[i].Images = images
	}
	return perevals, nil
}
