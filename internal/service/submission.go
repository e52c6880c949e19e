package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/integration"
	"github.com/sakif/waform/internal/model"
	"github.com/sakif/waform/internal/repository"
	"github.com/sakif/waform/internal/submission"
)

// JobQueue accepts background deliveries. integration.Dispatcher
// satisfies it.
type JobQueue interface {
	Submit(job integration.Job) bool
}

// SubmitResult is returned to the submitter. WhatsAppURL is empty when
// the form has no WhatsApp target.
type SubmitResult struct {
	Submission  *model.Submission `json:"submission"`
	WhatsAppURL string            `json:"whatsappUrl,omitempty"`
}

// InvalidAnswers is the error for a rejected submission. It unwraps to a
// validation AppError and also carries every field's message.
type InvalidAnswers struct {
	Fields apperror.FieldErrors
	err    error
}

func (e *InvalidAnswers) Error() string { return e.err.Error() }
func (e *InvalidAnswers) Unwrap() error { return e.err }

// SubmissionService records answers and fans them out to the form's
// integrations.
type SubmissionService struct {
	forms       *FormService
	submissions repository.SubmissionRepository
	accounts    repository.AccountRepository
	sheets      integration.SheetAppender
	queue       JobQueue
	logger      *slog.Logger

	now func() time.Time
}

// NewSubmissionService wires the service. sheets may be nil when Google
// is not configured; sheet targets are then skipped.
func NewSubmissionService(
	forms *FormService,
	submissions repository.SubmissionRepository,
	accounts repository.AccountRepository,
	sheets integration.SheetAppender,
	queue JobQueue,
	logger *slog.Logger,
) *SubmissionService {
	return &SubmissionService{
		forms:       forms,
		submissions: submissions,
		accounts:    accounts,
		sheets:      sheets,
		queue:       queue,
		logger:      logger,
		now:         time.Now,
	}
}

// Submit validates raw answers for the form behind shareID and stores
// them. The spreadsheet append runs in the background and never fails the
// submission.
func (s *SubmissionService) Submit(ctx context.Context, shareID string, raw map[string]any) (*SubmitResult, error) {
	form, err := s.forms.getShared(ctx, shareID)
	if err != nil {
		return nil, err
	}

	data, fieldErrs := submission.Check(form.Fields, raw)
	if len(fieldErrs) > 0 {
		ids := make([]string, len(form.Fields))
		for i, f := range form.Fields {
			ids[i] = f.ID
		}
		return nil, &InvalidAnswers{Fields: fieldErrs, err: fieldErrs.Err(ids)}
	}

	sub := &model.Submission{FormID: form.ID, Data: data}
	if err := s.submissions.Create(ctx, sub); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("form", shareID)
		}
		s.logger.Error("failed to store submission",
			slog.Int64("formId", form.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("storing submission: %w", err)
	}

	s.logger.Info("submission received",
		slog.Int64("formId", form.ID),
		slog.Int64("submissionId", sub.ID),
	)

	s.dispatchSheetAppend(form, sub)

	res := &SubmitResult{Submission: sub}
	if form.WhatsAppNumber != nil && *form.WhatsAppNumber != "" {
		msg := submission.WhatsAppMessage(form.Title, form.Fields, sub.Data)
		res.WhatsAppURL = submission.WhatsAppURL(*form.WhatsAppNumber, msg)
	}
	return res, nil
}

func (s *SubmissionService) dispatchSheetAppend(form *model.Form, sub *model.Submission) {
	if !form.HasSheetTarget() || s.sheets == nil || s.queue == nil {
		return
	}

	accountID := *form.ConnectedAccountID
	sheetID := *form.GoogleSheetID
	owner := form.UserID
	header := submission.SheetHeader(form.Fields)
	row := submission.SheetRow(form.Fields, sub.Data, s.submittedAt(sub))

	ok := s.queue.Submit(integration.Job{
		Name: fmt.Sprintf("sheets-append form=%d submission=%d", form.ID, sub.ID),
		Run: func(ctx context.Context) error {
			acct, err := s.accounts.GetByID(ctx, accountID)
			if err != nil {
				return fmt.Errorf("loading connected account %d: %w", accountID, err)
			}
			if acct.UserID != owner {
				return fmt.Errorf("connected account %d does not belong to form owner", accountID)
			}
			return s.sheets.AppendRow(ctx, acct, sheetID, header, row)
		},
	})
	if !ok {
		s.logger.Warn("sheet append dropped", slog.Int64("submissionId", sub.ID))
	}
}

func (s *SubmissionService) submittedAt(sub *model.Submission) time.Time {
	if sub.CreatedAt.IsZero() {
		return s.now()
	}
	return sub.CreatedAt
}

// SubmissionPage is one page of a form's submissions.
type SubmissionPage struct {
	Submissions []model.Submission `json:"submissions"`
	Total       int                `json:"total"`
}

// List returns the submissions of an owned form, newest first. A deleted
// form is NotFound.
func (s *SubmissionService) List(ctx context.Context, userID, formID int64, limit, offset int) (*SubmissionPage, error) {
	if _, err := s.forms.GetForOwner(ctx, userID, formID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	subs, err := s.submissions.ListByForm(ctx, formID, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	total, err := s.submissions.CountByForm(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("counting submissions: %w", err)
	}
	return &SubmissionPage{Submissions: subs, Total: total}, nil
}
