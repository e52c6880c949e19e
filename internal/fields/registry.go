// Package fields is the per-type behavior table for form fields.
//
// Every field type has exactly one entry here: its defaults, which
// properties the settings panel offers, and a Kind that knows how to
// present, encode and validate an answer. The builder preview, the owner
// preview and the public form all dispatch through this table, so a
// field type cannot behave differently depending on where it is shown.
package fields

import "github.com/sakif/waform/internal/model"

// Defaults is what a freshly added field starts with.
type Defaults struct {
	Label       string
	Placeholder string
	Options     model.FieldOptions
}

// Properties tells the settings panel which knobs a type exposes.
type Properties struct {
	HasPlaceholder    bool              `json:"hasPlaceholder"`
	HasOptions        bool              `json:"hasOptions"`
	HasRequiredToggle bool              `json:"hasRequiredToggle"`
	OptionsMode       model.OptionsMode `json:"optionsMode"`
}

// PaletteEntry is one draggable item of the builder sidebar.
type PaletteEntry struct {
	Type       model.FieldType `json:"type"`
	Label      string          `json:"label"`
	Defaults   DefaultsJSON    `json:"defaults"`
	Properties Properties      `json:"properties"`
}

// DefaultsJSON is Defaults in wire form.
type DefaultsJSON struct {
	Label       string   `json:"label"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
}

type entry struct {
	palette        string
	label          string
	placeholder    string
	hasPlaceholder bool
	kind           Kind
}

var seededChoices = []string{"Option 1", "Option 2"}

var table = map[model.FieldType]entry{
	model.FieldTitle: {
		palette: "Title / Heading", label: "Section Title",
		hasPlaceholder: true, kind: headingKind{},
	},
	model.FieldText: {
		palette: "Text Input", label: "Text Input", placeholder: "Enter text...",
		hasPlaceholder: true, kind: inputKind{inputType: "text"},
	},
	model.FieldTextarea: {
		palette: "Large Text", label: "Large Text", placeholder: "Enter your answer...",
		hasPlaceholder: true, kind: inputKind{inputType: "textarea", multiline: true},
	},
	model.FieldEmail: {
		palette: "Email Address", label: "Email Address", placeholder: "you@example.com",
		hasPlaceholder: true, kind: inputKind{inputType: "email", check: checkEmail},
	},
	model.FieldPhone: {
		palette: "Phone Number", label: "Phone Number", placeholder: "+1 (555) 000-0000",
		hasPlaceholder: true, kind: inputKind{inputType: "tel"},
	},
	model.FieldNumber: {
		palette: "Number Field", label: "Number Field", placeholder: "0",
		hasPlaceholder: true, kind: inputKind{inputType: "number", check: checkNumber},
	},
	model.FieldRating: {
		palette: "Rating", label: "Rating", kind: ratingKind{},
	},
	model.FieldDropdown: {
		palette: "Dropdown", label: "Dropdown", placeholder: "Select an option",
		hasPlaceholder: true, kind: choiceKind{control: ControlSelect},
	},
	model.FieldCheckbox: {
		palette: "Checkbox", label: "Checkbox", kind: checkboxKind{},
	},
	model.FieldRadio: {
		palette: "Radio Group", label: "Radio Group", kind: choiceKind{control: ControlRadioGroup},
	},
	model.FieldDate: {
		palette: "Date Picker", label: "Date Picker", kind: dateKind{},
	},
}

// DefaultsFor returns the starting label, placeholder and options of t.
// Each call returns fresh option values.
func DefaultsFor(t model.FieldType) Defaults {
	e, ok := table[t]
	if !ok {
		return Defaults{}
	}
	d := Defaults{Label: e.label, Placeholder: e.placeholder}
	switch t.OptionsMode() {
	case model.OptionsChoices:
		d.Options = model.Choices(append([]string(nil), seededChoices...))
	case model.OptionsRatingBound:
		d.Options = model.RatingMax(model.DefaultRatingMax)
	}
	return d
}

// ApplicableProperties reports which optional properties t supports.
func ApplicableProperties(t model.FieldType) Properties {
	e, ok := table[t]
	if !ok {
		return Properties{OptionsMode: model.OptionsNone}
	}
	mode := t.OptionsMode()
	return Properties{
		HasPlaceholder:    e.hasPlaceholder,
		HasOptions:        mode != model.OptionsNone,
		HasRequiredToggle: t != model.FieldTitle,
		OptionsMode:       mode,
	}
}

// NewField builds a field of type t with registry defaults.
func NewField(t model.FieldType, id string) model.FormField {
	d := DefaultsFor(t)
	return model.FormField{
		ID:          id,
		Type:        t,
		Label:       d.Label,
		Placeholder: d.Placeholder,
		Options:     d.Options,
	}
}

// Lookup returns the behavior of t.
func Lookup(t model.FieldType) (Kind, bool) {
	e, ok := table[t]
	if !ok {
		return nil, false
	}
	return e.kind, true
}

// Palette lists every type in sidebar order.
func Palette() []PaletteEntry {
	out := make([]PaletteEntry, 0, len(model.FieldTypes))
	for _, t := range model.FieldTypes {
		d := DefaultsFor(t)
		dj := DefaultsJSON{Label: d.Label, Placeholder: d.Placeholder}
		switch o := d.Options.(type) {
		case model.Choices:
			dj.Options = []string(o)
		case model.RatingMax:
			dj.Options = []string{itoa(int(o))}
		}
		out = append(out, PaletteEntry{
			Type:       t,
			Label:      table[t].palette,
			Defaults:   dj,
			Properties: ApplicableProperties(t),
		})
	}
	return out
}
