package builder

import "github.com/sakif/waform/internal/model"

// Snapshot is the JSON view of a State returned after every operation.
type Snapshot struct {
	FormID             int64             `json:"formId,omitempty"`
	Title              string            `json:"title"`
	Slug               string            `json:"slug"`
	SlugPinned         bool              `json:"slugPinned"`
	Fields             []model.FormField `json:"fields"`
	SelectedFieldID    *string           `json:"selectedFieldId"`
	WhatsAppNumber     *string           `json:"whatsappNumber"`
	GoogleSheetID      *string           `json:"googleSheetId"`
	GoogleSheetName    *string           `json:"googleSheetName"`
	ConnectedAccountID *int64            `json:"connectedAccountId"`
	SubmitButtonText   *string           `json:"submitButtonText"`
}

func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		FormID:             s.formID,
		Title:              s.title,
		Slug:               s.slug,
		SlugPinned:         s.slugPinned,
		Fields:             s.FormFields(),
		WhatsAppNumber:     cloneString(s.whatsappNumber),
		GoogleSheetID:      cloneString(s.googleSheetID),
		GoogleSheetName:    cloneString(s.googleSheetName),
		SubmitButtonText:   cloneString(s.submitButtonText),
		ConnectedAccountID: cloneInt64(s.connectedAccountID),
	}
	if s.selectedID != "" {
		snap.SelectedFieldID = cloneString(&s.selectedID)
	}
	return snap
}
