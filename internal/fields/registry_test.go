package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/waform/internal/model"
)

func TestDefaultsForEveryType(t *testing.T) {
	for _, ft := range model.FieldTypes {
		t.Run(string(ft), func(t *testing.T) {
			d := DefaultsFor(ft)
			if d.Label == "" {
				t.Fatalf("DefaultsFor(%s).Label is empty", ft)
			}

			switch ft {
			case model.FieldCheckbox, model.FieldDropdown, model.FieldRadio:
				assert.Equal(t, model.Choices{"Option 1", "Option 2"}, d.Options)
			case model.FieldRating:
				assert.Equal(t, model.RatingMax(5), d.Options)
			default:
				assert.Nil(t, d.Options)
			}
		})
	}
}

func TestDefaultsForIsPure(t *testing.T) {
	first := DefaultsFor(model.FieldDropdown)
	first.Options.(model.Choices)[0] = "mutated"

	second := DefaultsFor(model.FieldDropdown)
	assert.Equal(t, model.Choices{"Option 1", "Option 2"}, second.Options)
}

func TestApplicableProperties(t *testing.T) {
	tests := []struct {
		ft   model.FieldType
		want Properties
	}{
		{model.FieldTitle, Properties{HasPlaceholder: true, OptionsMode: model.OptionsNone}},
		{model.FieldText, Properties{HasPlaceholder: true, HasRequiredToggle: true, OptionsMode: model.OptionsNone}},
		{model.FieldDropdown, Properties{HasPlaceholder: true, HasOptions: true, HasRequiredToggle: true, OptionsMode: model.OptionsChoices}},
		{model.FieldRadio, Properties{HasOptions: true, HasRequiredToggle: true, OptionsMode: model.OptionsChoices}},
		{model.FieldRating, Properties{HasOptions: true, HasRequiredToggle: true, OptionsMode: model.OptionsRatingBound}},
		{model.FieldDate, Properties{HasRequiredToggle: true, OptionsMode: model.OptionsNone}},
	}
	for _, tt := range tests {
		if got := ApplicableProperties(tt.ft); got != tt.want {
			t.Errorf("ApplicableProperties(%s) = %+v, want %+v", tt.ft, got, tt.want)
		}
	}
}

func TestEveryTypeHasAKind(t *testing.T) {
	for _, ft := range model.FieldTypes {
		if _, ok := Lookup(ft); !ok {
			t.Errorf("Lookup(%s) missing", ft)
		}
	}
	if _, ok := Lookup("signature"); ok {
		t.Errorf("Lookup(signature) should not exist")
	}
}

func TestPalette(t *testing.T) {
	p := Palette()
	assert.Len(t, p, len(model.FieldTypes))
	assert.Equal(t, model.FieldTitle, p[0].Type)
	assert.Equal(t, "Title / Heading", p[0].Label)

	for _, e := range p {
		if e.Type == model.FieldRating {
			assert.Equal(t, []string{"5"}, e.Defaults.Options)
		}
	}
}

func TestNewField(t *testing.T) {
	f := NewField(model.FieldEmail, "abc")
	assert.Equal(t, "abc", f.ID)
	assert.Equal(t, "Email Address", f.Label)
	assert.Equal(t, "you@example.com", f.Placeholder)
	assert.False(t, f.Required)
}
