package fields

// Mode selects how interactive a rendered field is.
type Mode string

const (
	ModeBuilderPreview Mode = "builder-preview"
	ModeOwnerPreview   Mode = "owner-preview"
	ModePublicSubmit   Mode = "public-submit"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeBuilderPreview, ModeOwnerPreview, ModePublicSubmit:
		return true
	}
	return false
}

// Live is true for the modes where the visitor can type answers.
func (m Mode) Live() bool {
	return m == ModeOwnerPreview || m == ModePublicSubmit
}

// Control is the structural widget a field renders as.
type Control string

const (
	ControlHeading       Control = "heading"
	ControlInput         Control = "input"
	ControlTextarea      Control = "textarea"
	ControlStars         Control = "stars"
	ControlSelect        Control = "select"
	ControlCheckboxGroup Control = "checkbox-group"
	ControlCheckbox      Control = "checkbox"
	ControlRadioGroup    Control = "radio-group"
	ControlDate          Control = "date"
)

// View is the mode-specific structure of one field. It carries no markup;
// the render package turns it into HTML and the JSON API returns it as-is.
type View struct {
	FieldID     string   `json:"fieldId"`
	Control     Control  `json:"control"`
	Label       string   `json:"label"`
	ShowHeader  bool     `json:"showHeader"`
	Subtitle    string   `json:"subtitle,omitempty"`
	Required    bool     `json:"required"`
	Enforce     bool     `json:"enforce"`
	Disabled    bool     `json:"disabled"`
	InputType   string   `json:"inputType,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Value       string   `json:"value,omitempty"`
	Checked     bool     `json:"checked,omitempty"`
	Choices     []Choice `json:"choices,omitempty"`
	Stars       []Star   `json:"stars,omitempty"`
}

// Choice is one option of a select, radio or checkbox group.
type Choice struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// Star is one clickable star; Value is what clicking it records.
type Star struct {
	Value  int  `json:"value"`
	Filled bool `json:"filled"`
}
