// Package model defines the data structures used throughout the application.
//
// Nullable columns are pointers so JSON renders them as null, which is what
// the public redaction rules rely on.
package model

import "time"

// DefaultSubmitText is shown when a form has no custom submit button label.
const DefaultSubmitText = "Submit Response"

// Form is the persisted aggregate: metadata, ordered fields and
// integration targets.
//
// ShareID is assigned once at creation and never regenerated. Slug is
// cosmetic; links resolve through ShareID only.
type Form struct {
	ID                 int64       `json:"id"`
	UserID             int64       `json:"userId"`
	ShareID            string      `json:"shareId"`
	Title              string      `json:"title"`
	Slug               string      `json:"slug"`
	SlugPinned         bool        `json:"slugPinned"`
	Fields             []FormField `json:"fields"`
	WhatsAppNumber     *string     `json:"whatsappNumber"`
	GoogleSheetID      *string     `json:"googleSheetId"`
	GoogleSheetName    *string     `json:"googleSheetName"`
	ConnectedAccountID *int64      `json:"connectedAccountId"`
	SubmitButtonText   *string     `json:"submitButtonText"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// FormTitle, FormFields and SubmitLabel let the renderer treat a saved
// form and a builder draft the same way.
func (f *Form) FormTitle() string { return f.Title }

func (f *Form) FormFields() []FormField { return f.Fields }

func (f *Form) SubmitLabel() string {
	if f.SubmitButtonText != nil && *f.SubmitButtonText != "" {
		return *f.SubmitButtonText
	}
	return DefaultSubmitText
}

// HasSheetTarget reports whether submissions should be appended to a sheet.
func (f *Form) HasSheetTarget() bool {
	return f.GoogleSheetID != nil && *f.GoogleSheetID != "" && f.ConnectedAccountID != nil
}

// Public returns a copy safe for anonymous viewers. The WhatsApp number
// stays because the submit flow redirects to it.
func (f Form) Public() Form {
	f.GoogleSheetID = nil
	f.GoogleSheetName = nil
	f.ConnectedAccountID = nil
	return f
}

// Redacted strips every owner-only setting, including the WhatsApp target.
func (f Form) Redacted() Form {
	f = f.Public()
	f.WhatsAppNumber = nil
	return f
}

// FormInput is the create request.
type FormInput struct {
	Title              string      `json:"title"`
	Slug               *string     `json:"slug,omitempty"`
	Fields             []FormField `json:"fields"`
	WhatsAppNumber     *string     `json:"whatsappNumber,omitempty"`
	GoogleSheetID      *string     `json:"googleSheetId,omitempty"`
	GoogleSheetName    *string     `json:"googleSheetName,omitempty"`
	ConnectedAccountID *int64      `json:"connectedAccountId,omitempty"`
	SubmitButtonText   *string     `json:"submitButtonText,omitempty"`
}

// FormPatch is a partial update; nil members are left untouched.
type FormPatch struct {
	Title              *string      `json:"title,omitempty"`
	Slug               *string      `json:"slug,omitempty"`
	Fields             *[]FormField `json:"fields,omitempty"`
	WhatsAppNumber     *string      `json:"whatsappNumber,omitempty"`
	GoogleSheetID      *string      `json:"googleSheetId,omitempty"`
	GoogleSheetName    *string      `json:"googleSheetName,omitempty"`
	ConnectedAccountID *int64       `json:"connectedAccountId,omitempty"`
	SubmitButtonText   *string      `json:"submitButtonText,omitempty"`
}

// Submission is one filled-in form. Data is keyed by field id.
type Submission struct {
	ID        int64          `json:"id"`
	FormID    int64          `json:"formId"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"createdAt"`
}
