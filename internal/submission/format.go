package submission

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/waform/internal/model"
)

// WhatsAppMessage is the chat text sent to the form owner: a heading line,
// a blank line, then one "*label*: value" line per answered field in form
// order.
func WhatsAppMessage(title string, fs []model.FormField, data map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New Form Submission: %s\n\n", title)
	for _, f := range fs {
		if f.Type == model.FieldTitle {
			continue
		}
		v, ok := data[f.ID]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "*%s*: %s\n", f.Label, Display(v))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Display renders a stored value as text for people.
func Display(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = Display(item)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(x)
	}
}

// SubmittedAtHeader names the trailing timestamp column.
const SubmittedAtHeader = "Submitted At"

// SheetHeader is the column row written to an empty sheet.
func SheetHeader(fs []model.FormField) []any {
	row := make([]any, 0, len(fs)+1)
	for _, f := range fs {
		if f.Type == model.FieldTitle {
			continue
		}
		row = append(row, f.Label)
	}
	return append(row, SubmittedAtHeader)
}

// SheetRow lists the answers in form order followed by the submission time.
// Unanswered fields leave an empty cell so columns stay aligned.
func SheetRow(fs []model.FormField, data map[string]any, at time.Time) []any {
	row := make([]any, 0, len(fs)+1)
	for _, f := range fs {
		if f.Type == model.FieldTitle {
			continue
		}
		row = append(row, Display(data[f.ID]))
	}
	return append(row, at.UTC().Format(time.RFC3339))
}
