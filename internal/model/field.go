package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FieldType is the closed set of question kinds a form can hold.
type FieldType string

const (
	FieldTitle    FieldType = "title"
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldPhone    FieldType = "phone"
	FieldRating   FieldType = "rating"
	FieldDropdown FieldType = "dropdown"
	FieldCheckbox FieldType = "checkbox"
	FieldRadio    FieldType = "radio"
	FieldDate     FieldType = "date"
)

// FieldTypes lists every FieldType in palette order.
var FieldTypes = []FieldType{
	FieldTitle, FieldText, FieldTextarea, FieldEmail, FieldPhone, FieldNumber,
	FieldRating, FieldDropdown, FieldCheckbox, FieldRadio, FieldDate,
}

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	for _, known := range FieldTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t *FieldType) UnmarshalText(b []byte) error {
	ft := FieldType(b)
	if !ft.Valid() {
		return fmt.Errorf("unknown field type %q", string(b))
	}
	*t = ft
	return nil
}

// OptionsMode says how a field type interprets its options.
type OptionsMode string

const (
	OptionsNone        OptionsMode = "none"
	OptionsChoices     OptionsMode = "choices"
	OptionsRatingBound OptionsMode = "rating-bound"
)

// OptionsMode is intrinsic to the type: choice types carry a list, rating
// carries a star bound, everything else carries nothing.
func (t FieldType) OptionsMode() OptionsMode {
	switch t {
	case FieldDropdown, FieldCheckbox, FieldRadio:
		return OptionsChoices
	case FieldRating:
		return OptionsRatingBound
	default:
		return OptionsNone
	}
}

const (
	DefaultRatingMax = 5
	MinRatingMax     = 1
	MaxRatingMax     = 10
)

// FieldOptions is a tagged variant: Choices, RatingMax, or nil for none.
//
// On the wire both variants share the "options" string array. Choices is
// the list itself; RatingMax is a one-element list holding the bound.
type FieldOptions interface {
	wire() []string
}

// Choices is the selectable list of a dropdown, radio or checkbox field.
type Choices []string

func (c Choices) wire() []string {
	out := make([]string, len(c))
	copy(out, c)
	return out
}

// RatingMax is the star count of a rating field.
type RatingMax int

func (r RatingMax) wire() []string {
	return []string{strconv.Itoa(int(r))}
}

// Stars clamps the bound into the renderable range.
func (r RatingMax) Stars() int {
	n := int(r)
	if n < MinRatingMax {
		return MinRatingMax
	}
	if n > MaxRatingMax {
		return MaxRatingMax
	}
	return n
}

// FormField is one question of a form.
type FormField struct {
	ID          string       `json:"id"`
	Type        FieldType    `json:"type"`
	Label       string       `json:"label"`
	Placeholder string       `json:"placeholder,omitempty"`
	Required    bool         `json:"required"`
	Options     FieldOptions `json:"-"`
}

// ChoiceList returns the choices of a choice-mode field, nil otherwise.
func (f FormField) ChoiceList() []string {
	if c, ok := f.Options.(Choices); ok {
		return c
	}
	return nil
}

// HasChoices is true when a choice-mode field holds at least one option.
// A checkbox without choices is a single yes/no box.
func (f FormField) HasChoices() bool {
	return len(f.ChoiceList()) > 0
}

// RatingStars returns the clamped star count, defaulting to five.
func (f FormField) RatingStars() int {
	if r, ok := f.Options.(RatingMax); ok {
		return r.Stars()
	}
	return DefaultRatingMax
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (f FormField) Clone() FormField {
	if c, ok := f.Options.(Choices); ok {
		f.Options = Choices(c.wire())
	}
	return f
}

type wireField struct {
	ID          string    `json:"id"`
	Type        FieldType `json:"type"`
	Label       string    `json:"label"`
	Placeholder string    `json:"placeholder,omitempty"`
	Required    bool      `json:"required"`
	Options     *[]string `json:"options,omitempty"`
}

func (f FormField) MarshalJSON() ([]byte, error) {
	w := wireField{
		ID:          f.ID,
		Type:        f.Type,
		Label:       f.Label,
		Placeholder: f.Placeholder,
		Required:    f.Required,
	}
	if f.Options != nil {
		opts := f.Options.wire()
		w.Options = &opts
	}
	return json.Marshal(w)
}

func (f *FormField) UnmarshalJSON(b []byte) error {
	var w wireField
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*f = FormField{
		ID:          w.ID,
		Type:        w.Type,
		Label:       w.Label,
		Placeholder: w.Placeholder,
		Required:    w.Required,
	}
	if w.Options == nil {
		return nil
	}
	f.Options = DecodeOptions(w.Type, *w.Options)
	return nil
}

// DecodeOptions interprets a wire options array according to the type.
// A rating bound that does not parse falls back to the default.
func DecodeOptions(t FieldType, raw []string) FieldOptions {
	switch t.OptionsMode() {
	case OptionsChoices:
		return Choices(Choices(raw).wire())
	case OptionsRatingBound:
		if len(raw) == 0 {
			return RatingMax(DefaultRatingMax)
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw[0]))
		if err != nil {
			return RatingMax(DefaultRatingMax)
		}
		return RatingMax(n)
	default:
		return nil
	}
}
