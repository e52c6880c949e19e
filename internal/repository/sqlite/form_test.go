package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/model"
	"github.com/sakif/waform/internal/repository"
)

// newTestDB opens a migrated in-memory database that is closed when the
// test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	u := &model.User{Email: email, Name: "Test"}
	if err := db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

func createTestForm(t *testing.T, db *DB, userID int64, shareID string) *model.Form {
	t.Helper()
	f := &model.Form{
		UserID:  userID,
		ShareID: shareID,
		Title:   "Contact Us",
		Slug:    "contact-us",
		Fields: []model.FormField{
			{ID: "name", Type: model.FieldText, Label: "Name", Required: true},
			{ID: "rate", Type: model.FieldRating, Label: "Rate", Options: model.RatingMax(5)},
			{ID: "pick", Type: model.FieldCheckbox, Label: "Pick", Options: model.Choices{"A", "B"}},
		},
	}
	if err := db.Forms().Create(context.Background(), f); err != nil {
		t.Fatalf("failed to create test form: %v", err)
	}
	return f
}

func strPtr(s string) *string { return &s }

// =============================================================================
// CREATE TESTS
// =============================================================================

func TestFormCreate(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "owner@example.com")

	f := createTestForm(t, db, u.ID, "share-1")
	if f.ID == 0 {
		t.Error("Create() did not set form.ID")
	}
	if f.CreatedAt.IsZero() {
		t.Error("Create() did not set form.CreatedAt")
	}
}

func TestFormCreate_DuplicateShareID(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "owner@example.com")
	createTestForm(t, db, u.ID, "same")

	err := db.Forms().Create(context.Background(), &model.Form{UserID: u.ID, ShareID: "same", Title: "Other"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want ErrConflict", err)
	}
}

// =============================================================================
// GET TESTS
// =============================================================================

func TestFormGetByID_RoundTripsFields(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "owner@example.com")
	created := createTestForm(t, db, u.ID, "share-1")

	got, err := db.Forms().GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(got.Fields) != 3 {
		t.Fatalf("len(Fields) = %d, want 3", len(got.Fields))
	}
	if got.Fields[1].Options != model.RatingMax(5) {
		t.Errorf("rating options = %#v, want RatingMax(5)", got.Fields[1].Options)
	}
	if c, ok := got.Fields[2].Options.(model.Choices); !ok || len(c) != 2 {
		t.Errorf("checkbox options = %#v, want two choices", got.Fields[2].Options)
	}
	if got.WhatsAppNumber != nil {
		t.Errorf("WhatsAppNumber = %v, want nil", *got.WhatsAppNumber)
	}
}

func TestFormGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Forms().GetByID(context.Background(), 999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestFormGetByShareID(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "owner@example.com")
	created := createTestForm(t, db, u.ID, "abc123")

	got, err := db.Forms().GetByShareID(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("GetByShareID() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %d, want %d", got.ID, created.ID)
	}

	_, err = db.Forms().GetByShareID(context.Background(), "nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByShareID(nope) error = %v, want ErrNotFound", err)
	}
}

// =============================================================================
// LIST TESTS
// =============================================================================

func TestFormListByUser_OnlyOwnForms(t *testing.T) {
	db := newTestDB(t)
	a := createTestUser(t, db, "a@example.com")
	b := createTestUser(t, db, "b@example.com")
	createTestForm(t, db, a.ID, "a1")
	createTestForm(t, db, a.ID, "a2")
	createTestForm(t, db, b.ID, "b1")

	forms, err := db.Forms().ListByUser(context.Background(), a.ID, repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(forms) != 2 {
		t.Fatalf("len = %d, want 2", len(forms))
	}
	// newest first
	if forms[0].ShareID != "a2" {
		t.Errorf("forms[0].ShareID = %q, want a2", forms[0].ShareID)
	}
}

func TestFormListByUser_Pagination(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "a@example.com")
	for _, id := range []string{"s1", "s2", "s3"} {
		createTestForm(t, db, u.ID, id)
	}

	page, err := db.Forms().ListByUser(context.Background(), u.ID, repository.ListOptions{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(page) != 1 || page[0].ShareID != "s1" {
		t.Errorf("page = %+v, want only s1", page)
	}
}

// =============================================================================
// UPDATE TESTS
// =============================================================================

func TestFormUpdate(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "owner@example.com")
	f := createTestForm(t, db, u.ID, "share-1")

	f.Title = "New title"
	f.Slug = "pinned"
	f.SlugPinned = true
	f.WhatsAppNumber = strPtr("+31612345678")
	f.GoogleSheetID = strPtr("sheet")
	f.Fields = f.Fields[:1]
	if err := db.Forms().Update(context.Background(), f); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := db.Forms().GetByID(context.Background(), f.ID)
	if got.Title != "New title" || got.Slug != "pinned" || !got.SlugPinned {
		t.Errorf("got %q/%q/%v", got.Title, got.Slug, got.SlugPinned)
	}
	if got.ShareID != "share-1" {
		t.Errorf("ShareID changed to %q", got.ShareID)
	}
	if got.WhatsAppNumber == nil || *got.WhatsAppNumber != "+31612345678" {
		t.Errorf("WhatsAppNumber = %v", got.WhatsAppNumber)
	}
	if len(got.Fields) != 1 {
		t.Errorf("len(Fields) = %d, want 1", len(got.Fields))
	}
}

func TestFormUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)
	err := db.Forms().Update(context.Background(), &model.Form{ID: 404, Title: "x"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

// =============================================================================
// DELETE TESTS
// =============================================================================

func TestFormDelete_CascadesSubmissions(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	u := createTestUser(t, db, "owner@example.com")
	f := createTestForm(t, db, u.ID, "share-1")

	for range 3 {
		if err := db.Submissions().Create(ctx, &model.Submission{FormID: f.ID, Data: map[string]any{"name": "x"}}); err != nil {
			t.Fatalf("creating submission: %v", err)
		}
	}

	if err := db.Forms().Delete(ctx, f.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	n, err := db.Submissions().CountByForm(ctx, f.ID)
	if err != nil {
		t.Fatalf("CountByForm() error = %v", err)
	}
	if n != 0 {
		t.Errorf("orphaned submissions = %d, want 0", n)
	}
}

func TestFormDelete_NotFound(t *testing.T) {
	db := newTestDB(t)
	err := db.Forms().Delete(context.Background(), 404)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
