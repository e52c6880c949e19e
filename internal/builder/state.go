// Package builder holds the editable working copy of a form.
//
// A State is created explicitly for one editing session and passed to
// whoever drives it; there is no package-level instance. Every operation
// is synchronous and either applies fully or does nothing. Operations on
// ids that are not present are no-ops, since a double-clicked delete or a
// stale selection is expected and harmless.
package builder

import (
	"slices"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/waform/internal/fields"
	"github.com/sakif/waform/internal/model"
	"github.com/sakif/waform/internal/slug"
)

// DefaultTitle is the title of a brand-new form.
const DefaultTitle = "Untitled Form"

// State is the builder's working copy. It is not safe for concurrent use.
type State struct {
	formID     int64
	fields     []model.FormField
	title      string
	slug       string
	slugPinned bool
	selectedID string

	whatsappNumber     *string
	googleSheetID      *string
	googleSheetName    *string
	connectedAccountID *int64
	submitButtonText   *string

	newID func() string
}

// Option configures a State.
type Option func(*State)

// WithIDGenerator replaces the field id source. Tests use it for stable ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *State) { s.newID = gen }
}

// New returns a State already in its reset condition.
func New(opts ...Option) *State {
	s := &State{newID: func() string { return xid.New().String() }}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

// Reset returns every builder value to its creation default. It is safe to
// call any number of times.
func (s *State) Reset() {
	s.formID = 0
	s.fields = nil
	s.title = DefaultTitle
	s.slug = slug.Make(DefaultTitle)
	s.slugPinned = false
	s.selectedID = ""
	s.whatsappNumber = nil
	s.googleSheetID = nil
	s.googleSheetName = nil
	s.connectedAccountID = nil
	s.submitButtonText = nil
}

// Load resets the state and copies a persisted form into it.
func (s *State) Load(f *model.Form) {
	s.Reset()
	s.formID = f.ID
	s.title = f.Title
	s.slug = f.Slug
	s.slugPinned = f.SlugPinned
	s.fields = make([]model.FormField, len(f.Fields))
	for i, field := range f.Fields {
		s.fields[i] = field.Clone()
	}
	s.whatsappNumber = cloneString(f.WhatsAppNumber)
	s.googleSheetID = cloneString(f.GoogleSheetID)
	s.googleSheetName = cloneString(f.GoogleSheetName)
	s.submitButtonText = cloneString(f.SubmitButtonText)
	if f.ConnectedAccountID != nil {
		id := *f.ConnectedAccountID
		s.connectedAccountID = &id
	}
}

// AddField appends a field of type t with registry defaults and selects it.
func (s *State) AddField(t model.FieldType) model.FormField {
	f := fields.NewField(t, s.newID())
	s.fields = append(s.fields, f)
	s.selectedID = f.ID
	return f.Clone()
}

// RemoveField deletes the field and clears the selection if it pointed there.
func (s *State) RemoveField(id string) {
	i := s.indexOf(id)
	if i < 0 {
		return
	}
	s.fields = slices.Delete(s.fields, i, i+1)
	if s.selectedID == id {
		s.selectedID = ""
	}
}

// Patch is a shallow partial update of a field. Nil members are kept.
// Type has no member because it cannot change after creation.
type Patch struct {
	Label       *string
	Placeholder *string
	Required    *bool
	Options     model.FieldOptions
}

// UpdateField merges p into the field. The options variant is not checked
// against the field type.
func (s *State) UpdateField(id string, p Patch) {
	i := s.indexOf(id)
	if i < 0 {
		return
	}
	f := &s.fields[i]
	if p.Label != nil {
		f.Label = *p.Label
	}
	if p.Placeholder != nil {
		f.Placeholder = *p.Placeholder
	}
	if p.Required != nil {
		f.Required = *p.Required
	}
	if p.Options != nil {
		f.Options = p.Options
		*f = f.Clone()
	}
}

// SelectField moves the selection cursor. Any id is accepted and "" clears.
func (s *State) SelectField(id string) {
	s.selectedID = id
}

// ReorderFields moves the active field to the position the over field
// occupies. It is a move, not a swap.
func (s *State) ReorderFields(activeID, overID string) {
	from := s.indexOf(activeID)
	to := s.indexOf(overID)
	if from < 0 || to < 0 || from == to {
		return
	}
	moved := s.fields[from]
	s.fields = slices.Delete(s.fields, from, from+1)
	s.fields = slices.Insert(s.fields, to, moved)
}

// SetTitle changes the title and, unless the slug is pinned, re-derives it.
func (s *State) SetTitle(title string) {
	s.title = title
	if !s.slugPinned {
		s.slug = slug.Make(title)
	}
}

// SetSlug pins an explicit slug. An empty value unpins and re-derives.
func (s *State) SetSlug(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		s.slugPinned = false
		s.slug = slug.Make(s.title)
		return
	}
	s.slugPinned = true
	s.slug = slug.Make(v)
}

func (s *State) SetWhatsAppNumber(v *string)   { s.whatsappNumber = blankToNil(v) }
func (s *State) SetSubmitButtonText(v *string) { s.submitButtonText = blankToNil(v) }

// SetSheetTarget points submissions at a spreadsheet of a connected
// account. A nil id clears the whole target.
func (s *State) SetSheetTarget(accountID *int64, sheetID, sheetName *string) {
	sheetID = blankToNil(sheetID)
	if sheetID == nil {
		s.googleSheetID, s.googleSheetName, s.connectedAccountID = nil, nil, nil
		return
	}
	s.googleSheetID = sheetID
	s.googleSheetName = blankToNil(sheetName)
	if accountID != nil {
		id := *accountID
		s.connectedAccountID = &id
	}
}

// MarkSaved records the persisted id after a first save.
func (s *State) MarkSaved(f *model.Form) {
	s.formID = f.ID
	s.slug = f.Slug
}

func (s *State) FormID() int64     { return s.formID }
func (s *State) Selected() string  { return s.selectedID }
func (s *State) Slug() string      { return s.slug }
func (s *State) SlugPinned() bool  { return s.slugPinned }
func (s *State) FormTitle() string { return s.title }

// FormFields returns a copy of the ordered fields.
func (s *State) FormFields() []model.FormField {
	out := make([]model.FormField, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Clone()
	}
	return out
}

// Field returns the field with id, if present.
func (s *State) Field(id string) (model.FormField, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return model.FormField{}, false
	}
	return s.fields[i].Clone(), true
}

func (s *State) SubmitLabel() string {
	if s.submitButtonText != nil {
		return *s.submitButtonText
	}
	return model.DefaultSubmitText
}

// Input is the create request for a form that was never saved.
func (s *State) Input() model.FormInput {
	in := model.FormInput{
		Title:            s.title,
		Fields:           s.FormFields(),
		WhatsAppNumber:   cloneString(s.whatsappNumber),
		GoogleSheetID:    cloneString(s.googleSheetID),
		GoogleSheetName:  cloneString(s.googleSheetName),
		SubmitButtonText: cloneString(s.submitButtonText),
	}
	if s.slugPinned {
		in.Slug = cloneString(&s.slug)
	}
	in.ConnectedAccountID = cloneInt64(s.connectedAccountID)
	return in
}

// Changes is the update request for an already saved form. Optional
// settings are sent as empty strings when cleared so the update clears
// them too. An unpinned slug is sent empty so the stored one unpins.
func (s *State) Changes() model.FormPatch {
	in := s.Input()
	fieldsCopy := in.Fields
	p := model.FormPatch{
		Title:              &in.Title,
		Slug:               orEmpty(in.Slug),
		Fields:             &fieldsCopy,
		WhatsAppNumber:     orEmpty(in.WhatsAppNumber),
		GoogleSheetID:      orEmpty(in.GoogleSheetID),
		GoogleSheetName:    orEmpty(in.GoogleSheetName),
		SubmitButtonText:   orEmpty(in.SubmitButtonText),
		ConnectedAccountID: in.ConnectedAccountID,
	}
	if p.ConnectedAccountID == nil {
		zero := int64(0)
		p.ConnectedAccountID = &zero
	}
	return p
}

func (s *State) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.fields, func(f model.FormField) bool { return f.ID == id })
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func blankToNil(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	c := strings.TrimSpace(*v)
	return &c
}

func orEmpty(v *string) *string {
	if v == nil {
		empty := ""
		return &empty
	}
	return v
}
