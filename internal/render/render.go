// Package render turns a form, saved or still in the builder, into a page.
//
// Build produces the structural page for a mode by asking the fields
// table for each field's View. Renderer writes that page as HTML. Nothing
// here knows whether the Source is a saved form or a draft.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/sakif/waform/internal/fields"
	"github.com/sakif/waform/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Source is anything with a title, ordered fields and a submit label.
// *model.Form and *builder.State both qualify.
type Source interface {
	FormTitle() string
	FormFields() []model.FormField
	SubmitLabel() string
}

// Page is a form ready to be written out.
type Page struct {
	Title       string            `json:"title"`
	Mode        fields.Mode       `json:"mode"`
	Fields      []fields.View     `json:"fields"`
	SubmitLabel string            `json:"submitLabel"`
	Action      string            `json:"-"`
	Errors      map[string]string `json:"errors,omitempty"`
	Notice      string            `json:"notice,omitempty"`
}

// Interactive is true when the page accepts answers.
func (p Page) Interactive() bool { return p.Mode.Live() }

// Build lays out src for mode. values holds current answers keyed by field
// id and may be nil.
func Build(src Source, mode fields.Mode, values map[string]any) Page {
	fs := src.FormFields()
	p := Page{
		Title:       src.FormTitle(),
		Mode:        mode,
		Fields:      make([]fields.View, 0, len(fs)),
		SubmitLabel: src.SubmitLabel(),
	}
	for _, f := range fs {
		k, ok := fields.Lookup(f.Type)
		if !ok {
			continue
		}
		p.Fields = append(p.Fields, k.View(f, mode, values[f.ID]))
	}
	return p
}

// ThanksPage is shown after a successful public submission.
type ThanksPage struct {
	Title       string
	Message     string
	RedirectURL string
}

// Renderer holds the parsed templates.
type Renderer struct {
	templates *template.Template
}

// New parses the embedded templates once.
func New() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"errorFor": func(errs map[string]string, id string) string { return errs[id] },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parsing templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Form writes a full HTML page for p.
func (r *Renderer) Form(w io.Writer, p Page) error {
	return r.templates.ExecuteTemplate(w, "form", p)
}

// Fragment writes only the field list, used by the builder's live preview.
func (r *Renderer) Fragment(w io.Writer, p Page) error {
	return r.templates.ExecuteTemplate(w, "fields", p)
}

// Thanks writes the confirmation page.
func (r *Renderer) Thanks(w io.Writer, p ThanksPage) error {
	return r.templates.ExecuteTemplate(w, "thanks", p)
}
