// Package submission turns raw answers into stored submission data and
// formats that data for WhatsApp and spreadsheets.
package submission

import (
	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/fields"
	"github.com/sakif/waform/internal/model"
)

// Data is a normalized submission keyed by field id.
type Data map[string]any

// Encode normalizes raw answers against the form's fields and validates
// them, including required flags. Keys that are not field ids are
// dropped and title fields never produce a value. All invalid answers are
// reported in a single validation error.
func Encode(fs []model.FormField, raw map[string]any) (Data, error) {
	data, errs := Check(fs, raw)
	if err := errs.Err(fieldIDs(fs)); err != nil {
		return nil, err
	}
	return data, nil
}

// Check is Encode for callers that need the per-field messages, such as
// an HTML page redisplaying a rejected form. data is nil when errs is
// non-empty.
func Check(fs []model.FormField, raw map[string]any) (Data, apperror.FieldErrors) {
	data := make(Data, len(fs))
	errs := apperror.FieldErrors{}

	for _, f := range fs {
		k, ok := fields.Lookup(f.Type)
		if !ok {
			continue
		}
		v, err := k.Encode(f, raw[f.ID])
		if err != nil {
			errs[f.ID] = label(f) + ": " + err.Error()
			continue
		}
		if err := k.Validate(f, v); err != nil {
			errs[f.ID] = err.Error()
			continue
		}
		if v != nil {
			data[f.ID] = v
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return data, nil
}

func fieldIDs(fs []model.FormField) []string {
	ids := make([]string, len(fs))
	for i, f := range fs {
		ids[i] = f.ID
	}
	return ids
}

func label(f model.FormField) string {
	if f.Label == "" {
		return f.ID
	}
	return f.Label
}
