package repository

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stena13/Final-project/database"
	"github.com/stena13/Final-project/models"
	"github.com/stena13/Final-project/validation"
)

// newTestRepo provisions a throwaway SQLite database through the same GORM
// migration used at startup and returns a repository bound to it.
func newTestRepo(t *testing.T) *PerevalRepository {
	t.Helper()

	gormLogger := logger.New(log.New(os.Stderr, "", log.LstdFlags), logger.Config{
		LogLevel: logger.Silent,
	})
	dbPath := filepath.Join(t.TempDir(), "pereval_test.db")
	gormDB, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{Logger: gormLogger})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.AutoMigrateModels(gormDB); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("failed to unwrap sql.DB: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	return NewPerevalRepository(sqlDB)
}

func strPtr(s string) *string { return &s }

func newSubmission() *validation.PerevalSubmission {
	return &validation.PerevalSubmission{
		BeautyTitle: strPtr("пер. "),
		Title:       "Пхия",
		OtherTitles: strPtr("Триев"),
		Connect:     strPtr(""),
		AddTime:     "2021-09-22 13:18:13",
		User: validation.UserPayload{
			Email: "qwerty@mail.ru",
			Fam:   "Пупкин",
			Name:  "Василий",
			Otc:   strPtr("Иванович"),
			Phone: "8 (800) 555-35-35",
		},
		Coords: validation.CoordsPayload{
			Latitude:  "45.3842",
			Longitude: "7.1525",
			Height:    "1200",
		},
		Level: validation.LevelPayload{Summer: "1А", Autumn: "1А"},
		Images: []validation.ImagePayload{
			{Data: "aGVsbG8=", Title: strPtr("Седловина")},
			{Data: "d29ybGQ=", Title: strPtr("Подъём")},
		},
	}
}

func TestCreateAndGetByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sub := newSubmission()
	sub.Images[0].Data = "data:image/png;base64,aGVsbG8="

	id, err := repo.Create(ctx, sub)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id <= 0 {
		t.Fatalf("Create returned id %d, want > 0", id)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.ID != id {
		t.Errorf("id = %d, want %d", got.ID, id)
	}
	if got.Title != "Пхия" {
		t.Errorf("title = %q", got.Title)
	}
	if got.BeautyTitle == nil || *got.BeautyTitle != "пер. " {
		t.Errorf("beauty_title = %v", got.BeautyTitle)
	}
	if got.AddTime != "2021-09-22 13:18:13" {
		t.Errorf("add_time = %q", got.AddTime)
	}
	if got.Status != models.StatusNew {
		t.Errorf("status = %q, want %q", got.Status, models.StatusNew)
	}
	if got.DateAdded.IsZero() {
		t.Error("date_added was not populated by the store")
	}
	if time.Since(got.DateAdded) > time.Hour {
		t.Errorf("date_added %v is not recent", got.DateAdded)
	}

	if got.User.Email != "qwerty@mail.ru" || got.User.Fam != "Пупкин" {
		t.Errorf("submitter = %+v", got.User)
	}
	if got.User.Otc == nil || *got.User.Otc != "Иванович" {
		t.Errorf("otc = %v", got.User.Otc)
	}

	if got.Coords.Latitude != "45.3842" || got.Coords.Longitude != "7.1525" || got.Coords.Height != "1200" {
		t.Errorf("coords = %+v", got.Coords)
	}

	if got.Level.Summer != "1А" || got.Level.Autumn != "1А" || got.Level.Winter != "" {
		t.Errorf("level = %+v", got.Level)
	}

	if len(got.Images) != 2 {
		t.Fatalf("got %d images, want 2", len(got.Images))
	}
	if got.Images[0].Data != "aGVsbG8=" {
		t.Errorf("data-URI prefix was not stripped: %q", got.Images[0].Data)
	}
	if got.Images[0].Title == nil || *got.Images[0].Title != "Седловина" {
		t.Errorf("image title = %v", got.Images[0].Title)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetByID(context.Background(), 9999)
	if !errors.Is(err, ErrPerevalNotFound) {
		t.Fatalf("got %v, want ErrPerevalNotFound", err)
	}
}

func TestCreateUpsertsSubmitterByEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := newSubmission()
	firstID, err := repo.Create(ctx, first)
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	second := newSubmission()
	second.Title = "Дятлова"
	second.User.Fam = "Иванов"
	second.User.Phone = "+7 900 123 45 67"
	secondID, err := repo.Create(ctx, second)
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if firstID == secondID {
		t.Fatalf("both submissions got id %d", firstID)
	}

	var userCount int
	err = repo.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email = ?", "qwerty@mail.ru").Scan(&userCount)
	if err != nil {
		t.Fatalf("failed to count users: %v", err)
	}
	if userCount != 1 {
		t.Fatalf("got %d submitter rows, want 1", userCount)
	}

	// the later submission's fields win on both records
	for _, id := range []int64{firstID, secondID} {
		got, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID(%d) failed: %v", id, err)
		}
		if got.User.Fam != "Иванов" {
			t.Errorf("record %d: fam = %q, want %q", id, got.User.Fam, "Иванов")
		}
		if got.User.Phone != "+7 900 123 45 67" {
			t.Errorf("record %d: phone = %q", id, got.User.Phone)
		}
	}
}

func TestUpdatePartialFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newSubmission())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	upd := &validation.PerevalUpdate{
		Title: strPtr("Пхия (вост.)"),
		Level: &validation.LevelUpdate{Winter: strPtr("2А")},
	}
	if err := repo.Update(ctx, id, upd); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Пхия (вост.)" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Level.Winter != "2А" {
		t.Errorf("level.winter = %q", got.Level.Winter)
	}
	// absent fields stay untouched
	if got.Level.Summer != "1А" {
		t.Errorf("level.summer = %q, want unchanged %q", got.Level.Summer, "1А")
	}
	if got.AddTime != "2021-09-22 13:18:13" {
		t.Errorf("add_time = %q, want unchanged", got.AddTime)
	}
	if len(got.Images) != 2 {
		t.Errorf("got %d images, want the original 2", len(got.Images))
	}
}

func TestUpdateCoordsInPlace(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newSubmission())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	upd := &validation.PerevalUpdate{
		Coords: &validation.CoordsPayload{Latitude: "45.5", Longitude: "7.2", Height: "-28"},
	}
	if err := repo.Update(ctx, id, upd); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Coords.Latitude != "45.5" || got.Coords.Longitude != "7.2" || got.Coords.Height != "-28" {
		t.Errorf("coords = %+v", got.Coords)
	}

	var coordsCount int
	if err := repo.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM coords").Scan(&coordsCount); err != nil {
		t.Fatalf("failed to count coords: %v", err)
	}
	if coordsCount != 1 {
		t.Errorf("got %d coords rows, want 1 (update must be in place)", coordsCount)
	}
}

func TestUpdateReplacesImages(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newSubmission())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	upd := &validation.PerevalUpdate{
		Images: []validation.ImagePayload{
			{Data: "bmV3", Title: strPtr("Новый вид")},
		},
	}
	if err := repo.Update(ctx, id, upd); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Images) != 1 {
		t.Fatalf("got %d images, want 1", len(got.Images))
	}
	if got.Images[0].Data != "bmV3" {
		t.Errorf("image data = %q", got.Images[0].Data)
	}

	// the replaced images are gone from the store, not just unlinked
	var imageCount int
	if err := repo.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM pereval_images").Scan(&imageCount); err != nil {
		t.Fatalf("failed to count images: %v", err)
	}
	if imageCount != 1 {
		t.Errorf("got %d image rows, want 1", imageCount)
	}
}

func TestUpdateNotFound(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.Update(context.Background(), 424242, &validation.PerevalUpdate{Title: strPtr("x")})
	if !errors.Is(err, ErrPerevalNotFound) {
		t.Fatalf("got %v, want ErrPerevalNotFound", err)
	}
}

func TestUpdateRejectedWhenStatusNotNew(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newSubmission())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	before, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	for _, status := range []models.Status{models.StatusPending, models.StatusAccepted, models.StatusRejected} {
		_, err := repo.DB.ExecContext(ctx,
			"UPDATE pereval_added SET status = ? WHERE id = ?", string(status), id)
		if err != nil {
			t.Fatalf("failed to force status %q: %v", status, err)
		}

		err = repo.Update(ctx, id, &validation.PerevalUpdate{Title: strPtr("Неважно")})
		var notEditable *NotEditableError
		if !errors.As(err, &notEditable) {
			t.Fatalf("status %q: got %v, want NotEditableError", status, err)
		}
		if notEditable.Status != status {
			t.Errorf("error carries status %q, want %q", notEditable.Status, status)
		}
	}

	after, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if after.Title != before.Title {
		t.Errorf("title changed despite rejection: %q -> %q", before.Title, after.Title)
	}
	if after.Coords != before.Coords {
		t.Errorf("coords changed despite rejection: %+v -> %+v", before.Coords, after.Coords)
	}
	if len(after.Images) != len(before.Images) {
		t.Errorf("image count changed despite rejection: %d -> %d", len(before.Images), len(after.Images))
	}
}

func TestListByEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("unknown email returns empty list", func(t *testing.T) {
		records, err := repo.ListByEmail(ctx, "nobody@example.com")
		if err != nil {
			t.Fatalf("ListByEmail failed: %v", err)
		}
		if len(records) != 0 {
			t.Fatalf("got %d records, want 0", len(records))
		}
	})

	first := newSubmission()
	firstID, err := repo.Create(ctx, first)
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	second := newSubmission()
	second.Title = "Дятлова"
	secondID, err := repo.Create(ctx, second)
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}

	other := newSubmission()
	other.User.Email = "other@mail.ru"
	if _, err := repo.Create(ctx, other); err != nil {
		t.Fatalf("third Create failed: %v", err)
	}

	t.Run("records come back newest first", func(t *testing.T) {
		records, err := repo.ListByEmail(ctx, "qwerty@mail.ru")
		if err != nil {
			t.Fatalf("ListByEmail failed: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("got %d records, want 2", len(records))
		}
		if records[0].ID != secondID || records[1].ID != firstID {
			t.Errorf("order = [%d, %d], want [%d, %d]",
				records[0].ID, records[1].ID, secondID, firstID)
		}
		if records[0].Title != "Дятлова" {
			t.Errorf("newest title = %q", records[0].Title)
		}
		if len(records[0].Images) != 2 {
			t.Errorf("newest record has %d images, want 2", len(records[0].Images))
		}
	})
}
