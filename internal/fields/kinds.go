package fields

import (
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/waform/internal/model"
)

// DateLayout is the stored form of a date answer.
const DateLayout = "2006-01-02"

// Kind is the behavior of one field type.
//
// View builds the structure for a mode given the current answer (nil when
// unanswered). Encode turns a raw answer from a browser or API client into
// its stored form, returning nil for "no answer". Validate checks a stored
// answer against the field's rules, including required.
type Kind interface {
	View(f model.FormField, mode Mode, value any) View
	Encode(f model.FormField, raw any) (any, error)
	Validate(f model.FormField, value any) error
}

func baseView(f model.FormField, mode Mode, c Control) View {
	return View{
		FieldID:    f.ID,
		Control:    c,
		Label:      f.Label,
		ShowHeader: true,
		Required:   f.Required,
		Enforce:    f.Required && mode.Live(),
		Disabled:   !mode.Live(),
	}
}

func requiredErr(f model.FormField) error {
	label := f.Label
	if label == "" {
		label = "this field"
	}
	return fmt.Errorf("%s is required", label)
}

type headingKind struct{}

func (headingKind) View(f model.FormField, mode Mode, _ any) View {
	v := baseView(f, mode, ControlHeading)
	if v.Label == "" {
		v.Label = table[model.FieldTitle].label
	}
	v.ShowHeader = false
	v.Required = false
	v.Enforce = false
	v.Subtitle = f.Placeholder
	return v
}

func (headingKind) Encode(model.FormField, any) (any, error) { return nil, nil }

func (headingKind) Validate(model.FormField, any) error { return nil }

// inputKind covers single- and multi-line free text. check, when set, is
// the type-specific syntax rule (email, number).
type inputKind struct {
	inputType string
	multiline bool
	check     func(string) error
}

func (k inputKind) View(f model.FormField, mode Mode, value any) View {
	c := ControlInput
	if k.multiline {
		c = ControlTextarea
	}
	v := baseView(f, mode, c)
	if !k.multiline {
		v.InputType = k.inputType
	}
	v.Placeholder = f.Placeholder
	if v.Placeholder == "" {
		v.Placeholder = table[f.Type].placeholder
	}
	if s, ok := asString(value); ok {
		v.Value = s
	}
	return v
}

func (k inputKind) Encode(_ model.FormField, raw any) (any, error) {
	s, ok := asString(raw)
	if !ok {
		if raw == nil {
			return nil, nil
		}
		return nil, errors.New("expected a text answer")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	return s, nil
}

func (k inputKind) Validate(f model.FormField, value any) error {
	s, _ := value.(string)
	if s == "" {
		if f.Required {
			return requiredErr(f)
		}
		return nil
	}
	if k.check != nil {
		return k.check(s)
	}
	return nil
}

func checkEmail(s string) error {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return fmt.Errorf("%q is not a valid email address", s)
	}
	return nil
}

func checkNumber(s string) error {
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("%q is not a number", s)
	}
	return nil
}

type ratingKind struct{}

func (ratingKind) View(f model.FormField, mode Mode, value any) View {
	v := baseView(f, mode, ControlStars)
	n := f.RatingStars()
	current, _ := asInt(value)
	v.Stars = make([]Star, n)
	for i := range n {
		v.Stars[i] = Star{Value: i + 1, Filled: i < current}
	}
	if current > 0 {
		v.Value = strconv.Itoa(current)
	}
	return v
}

func (ratingKind) Encode(_ model.FormField, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	n, ok := asInt(raw)
	if !ok {
		return nil, errors.New("rating must be a whole number")
	}
	if n == 0 {
		return nil, nil
	}
	return n, nil
}

func (ratingKind) Validate(f model.FormField, value any) error {
	n, _ := value.(int)
	if n == 0 {
		if f.Required {
			return requiredErr(f)
		}
		return nil
	}
	if bound := f.RatingStars(); n < 1 || n > bound {
		return fmt.Errorf("rating must be between 1 and %d", bound)
	}
	return nil
}

// choiceKind is a single pick out of the field's choices.
type choiceKind struct {
	control Control
}

func (k choiceKind) View(f model.FormField, mode Mode, value any) View {
	v := baseView(f, mode, k.control)
	selected, _ := asString(value)
	v.Value = selected
	if k.control == ControlSelect {
		v.Placeholder = f.Placeholder
		if v.Placeholder == "" {
			v.Placeholder = table[model.FieldDropdown].placeholder
		}
	}
	for _, opt := range f.ChoiceList() {
		v.Choices = append(v.Choices, Choice{Value: opt, Selected: opt == selected && selected != ""})
	}
	return v
}

func (choiceKind) Encode(_ model.FormField, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	s, ok := asString(raw)
	if !ok {
		return nil, errors.New("expected a single choice")
	}
	if s == "" {
		return nil, nil
	}
	return s, nil
}

func (choiceKind) Validate(f model.FormField, value any) error {
	s, _ := value.(string)
	if s == "" {
		if f.Required {
			return requiredErr(f)
		}
		return nil
	}
	if !slices.Contains(f.ChoiceList(), s) {
		return fmt.Errorf("%q is not one of the choices", s)
	}
	return nil
}

// checkboxKind is a group of independent boxes when the field has
// choices, and a single yes/no box labeled with the field label otherwise.
type checkboxKind struct{}

func (checkboxKind) View(f model.FormField, mode Mode, value any) View {
	if !f.HasChoices() {
		v := baseView(f, mode, ControlCheckbox)
		v.Checked, _ = asBool(value)
		return v
	}
	v := baseView(f, mode, ControlCheckboxGroup)
	checked, _ := asStrings(value)
	for _, opt := range f.ChoiceList() {
		v.Choices = append(v.Choices, Choice{Value: opt, Selected: slices.Contains(checked, opt)})
	}
	return v
}

func (checkboxKind) Encode(f model.FormField, raw any) (any, error) {
	if !f.HasChoices() {
		// an unchecked box is left out of an HTML post
		if raw == nil {
			return false, nil
		}
		b, ok := asBool(raw)
		if !ok {
			return nil, errors.New("expected true or false")
		}
		return b, nil
	}
	if raw == nil {
		return nil, nil
	}
	picked, ok := asStrings(raw)
	if !ok {
		return nil, errors.New("expected a list of choices")
	}
	// Stored in choice order so the same boxes always encode the same way.
	// Unknown values are kept for Validate to reject.
	out := make([]string, 0, len(picked))
	for _, opt := range f.ChoiceList() {
		if slices.Contains(picked, opt) {
			out = append(out, opt)
		}
	}
	for _, p := range picked {
		if p != "" && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (checkboxKind) Validate(f model.FormField, value any) error {
	if !f.HasChoices() {
		b, _ := value.(bool)
		if f.Required && !b {
			return requiredErr(f)
		}
		return nil
	}
	picked, _ := value.([]string)
	if len(picked) == 0 {
		if f.Required {
			return requiredErr(f)
		}
		return nil
	}
	for _, p := range picked {
		if !slices.Contains(f.ChoiceList(), p) {
			return fmt.Errorf("%q is not one of the choices", p)
		}
	}
	return nil
}

type dateKind struct{}

func (dateKind) View(f model.FormField, mode Mode, value any) View {
	v := baseView(f, mode, ControlDate)
	v.Placeholder = "Pick a date"
	if mode.Live() {
		v.InputType = "date"
		if f.Placeholder != "" {
			v.Placeholder = f.Placeholder
		}
	}
	if s, ok := asString(value); ok {
		v.Value = s
	}
	return v
}

func (dateKind) Encode(_ model.FormField, raw any) (any, error) {
	s, ok := asString(raw)
	if !ok {
		if raw == nil {
			return nil, nil
		}
		return nil, errors.New("expected a date")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.Format(DateLayout), nil
	}
	// Date pickers serialise to a full timestamp.
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("%q is not a date", s)
	}
	return t.UTC().Format(DateLayout), nil
}

func (dateKind) Validate(f model.FormField, value any) error {
	s, _ := value.(string)
	if s == "" && f.Required {
		return requiredErr(f)
	}
	return nil
}
