package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/waform/internal/builder"
	"github.com/sakif/waform/internal/fields"
	"github.com/sakif/waform/internal/model"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	return r
}

func TestDraftAndSavedFormRenderIdentically(t *testing.T) {
	n := 0
	st := builder.New(builder.WithIDGenerator(func() string {
		n++
		return "id" + string(rune('0'+n))
	}))
	st.SetTitle("Feedback")
	for _, ft := range model.FieldTypes {
		st.AddField(ft)
	}

	saved := &model.Form{Title: st.FormTitle(), Fields: st.FormFields()}

	for _, mode := range []fields.Mode{fields.ModeBuilderPreview, fields.ModeOwnerPreview, fields.ModePublicSubmit} {
		assert.Equal(t, Build(st, mode, nil), Build(saved, mode, nil), mode)
	}
}

func TestRatingRendersFiveStarsInEveryMode(t *testing.T) {
	r := newRenderer(t)
	form := &model.Form{
		Title:  "Rate us",
		Fields: []model.FormField{fields.NewField(model.FieldRating, "r1")},
	}

	for _, mode := range []fields.Mode{fields.ModeBuilderPreview, fields.ModePublicSubmit} {
		var buf bytes.Buffer
		require.NoError(t, r.Form(&buf, Build(form, mode, nil)))
		assert.Equal(t, 5, strings.Count(buf.String(), "&#9733;"), mode)
	}
}

func TestPublicPageIsInteractive(t *testing.T) {
	r := newRenderer(t)
	form := &model.Form{
		Title: "Signup",
		Fields: []model.FormField{
			{ID: "name", Type: model.FieldText, Label: "Name", Required: true},
			{ID: "agree", Type: model.FieldCheckbox, Label: "I agree"},
		},
	}

	p := Build(form, fields.ModePublicSubmit, nil)
	p.Action = "/share/abc"
	var buf bytes.Buffer
	require.NoError(t, r.Form(&buf, p))
	html := buf.String()

	assert.Contains(t, html, `<form method="post" action="/share/abc">`)
	assert.Contains(t, html, `name="name"`)
	assert.Contains(t, html, "required")
	assert.Contains(t, html, "Submit Response")
	assert.NotContains(t, html, "disabled")
}

func TestBuilderPreviewIsDisabled(t *testing.T) {
	r := newRenderer(t)
	form := &model.Form{
		Title:  "Draft",
		Fields: []model.FormField{fields.NewField(model.FieldEmail, "e"), fields.NewField(model.FieldDate, "d")},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Fragment(&buf, Build(form, fields.ModeBuilderPreview, nil)))
	html := buf.String()

	assert.Contains(t, html, "disabled")
	assert.Contains(t, html, "Pick a date")
	assert.NotContains(t, html, "<form")
}

func TestErrorsAreShownNextToFields(t *testing.T) {
	r := newRenderer(t)
	form := &model.Form{Title: "T", Fields: []model.FormField{{ID: "q", Type: model.FieldText, Label: "Q", Required: true}}}

	p := Build(form, fields.ModePublicSubmit, nil)
	p.Errors = map[string]string{"q": "Q is required"}
	var buf bytes.Buffer
	require.NoError(t, r.Form(&buf, p))
	assert.Contains(t, buf.String(), "Q is required")
}

func TestThanksEscapesRedirect(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer
	require.NoError(t, r.Thanks(&buf, ThanksPage{
		Title:       "Thanks",
		Message:     "Your response has been recorded.",
		RedirectURL: "https://wa.me/15550001111?text=Hi%20there",
	}))
	assert.Contains(t, buf.String(), "Continue to WhatsApp")
}
