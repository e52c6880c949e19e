// Package integration delivers submissions to external sinks.
//
// The interfaces here are what the services depend on; the sheets
// subpackage implements them on the Google APIs. Deliveries run on a
// Dispatcher so a slow or failing sink never holds up a submitter.
package integration

import (
	"context"

	"github.com/sakif/waform/internal/model"
)

// Spreadsheet is one entry of a user's spreadsheet list.
type Spreadsheet struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SheetAppender appends a row to a spreadsheet, writing header first when
// the sheet is empty.
type SheetAppender interface {
	AppendRow(ctx context.Context, acct *model.ConnectedAccount, spreadsheetID string, header, row []any) error
}

// SheetLister lists the spreadsheets a connected account can write to.
type SheetLister interface {
	ListSpreadsheets(ctx context.Context, acct *model.ConnectedAccount) ([]Spreadsheet, error)
}
