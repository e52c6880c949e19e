package submission

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/fields"
	"github.com/sakif/waform/internal/model"
)

func contactFields() []model.FormField {
	return []model.FormField{
		{ID: "h", Type: model.FieldTitle, Label: "Contact"},
		{ID: "name", Type: model.FieldText, Label: "Name", Required: true},
		{ID: "email", Type: model.FieldEmail, Label: "Email", Required: true},
		{ID: "rate", Type: model.FieldRating, Label: "Rating", Options: model.RatingMax(5)},
		{ID: "topics", Type: model.FieldCheckbox, Label: "Topics", Options: model.Choices{"A", "B"}},
		{ID: "agree", Type: model.FieldCheckbox, Label: "Agree"},
		{ID: "when", Type: model.FieldDate, Label: "When"},
	}
}

func TestEncodeNormalizes(t *testing.T) {
	data, err := Encode(contactFields(), map[string]any{
		"h":      "ignored",
		"name":   " Jane ",
		"email":  "jane@example.com",
		"rate":   float64(3),
		"topics": []any{"B"},
		"agree":  true,
		"when":   "2024-05-01T10:00:00Z",
		"bogus":  "dropped",
	})
	require.NoError(t, err)

	assert.Equal(t, Data{
		"name":   "Jane",
		"email":  "jane@example.com",
		"rate":   3,
		"topics": []string{"B"},
		"agree":  true,
		"when":   "2024-05-01",
	}, data)
}

func TestEncodeEnforcesRequiredServerSide(t *testing.T) {
	_, err := Encode(contactFields(), map[string]any{"email": "not-an-email"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "name", appErr.Field)
	assert.Contains(t, appErr.Message, "Name is required")
	assert.Contains(t, appErr.Message, "not a valid email")
}

func TestEncodeFormPostValues(t *testing.T) {
	// url-encoded posts carry []string for every key
	fs := []model.FormField{
		{ID: "rate", Type: model.FieldRating, Required: true, Options: model.RatingMax(5)},
		{ID: "topics", Type: model.FieldCheckbox, Options: model.Choices{"A", "B"}},
		{ID: "agree", Type: model.FieldCheckbox},
	}
	data, err := Encode(fs, map[string]any{
		"rate":   []string{"3"},
		"topics": []string{"B", "A"},
		"agree":  []string{"on"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, data["rate"])
	assert.Equal(t, []string{"A", "B"}, data["topics"])
	assert.Equal(t, true, data["agree"])
}

func TestEncodeUncheckedSingleCheckboxIsFalse(t *testing.T) {
	fs := []model.FormField{
		{ID: "name", Type: model.FieldText, Label: "Name"},
		{ID: "agree", Type: model.FieldCheckbox, Label: "Agree"},
	}
	// browsers leave unchecked boxes out of the post entirely
	data, err := Encode(fs, map[string]any{"name": []string{"Jo"}})
	require.NoError(t, err)
	assert.Equal(t, false, data["agree"])

	row := SheetRow(fs, data, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "No", row[1])
}

func TestRatingClickEncodesStarValue(t *testing.T) {
	f := fields.NewField(model.FieldRating, "r")
	k, _ := fields.Lookup(model.FieldRating)
	v := k.View(f, fields.ModePublicSubmit, nil)

	// clicking the third star submits its value
	data, err := Encode([]model.FormField{f}, map[string]any{"r": v.Stars[2].Value})
	require.NoError(t, err)
	assert.Equal(t, 3, data["r"])
}

func TestWhatsAppMessage(t *testing.T) {
	fs := contactFields()
	msg := WhatsAppMessage("Contact Us", fs, map[string]any{
		"name":   "Jane",
		"email":  "jane@example.com",
		"topics": []string{"A", "B"},
		"agree":  false,
	})
	assert.Equal(t, "New Form Submission: Contact Us\n\n*Name*: Jane\n*Email*: jane@example.com\n*Topics*: A, B\n*Agree*: No", msg)
}

func TestSheetRowAndHeader(t *testing.T) {
	fs := contactFields()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	header := SheetHeader(fs)
	assert.Equal(t, []any{"Name", "Email", "Rating", "Topics", "Agree", "When", SubmittedAtHeader}, header)

	row := SheetRow(fs, map[string]any{"name": "Jane", "rate": 4}, at)
	assert.Equal(t, []any{"Jane", "", "4", "", "", "", "2024-05-01T12:00:00Z"}, row)
	assert.Len(t, row, len(header))
}
