// Package service holds the business rules between the HTTP handlers and
// the repositories. Services take repository interfaces, return domain
// errors from apperror and never see an *http.Request, so the CLI can
// call them too.
package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/model"
	"github.com/sakif/waform/internal/repository"
	"github.com/sakif/waform/internal/slug"
	"github.com/sakif/waform/internal/submission"
)

const (
	MaxTitleLength   = 200
	MaxFieldCount    = 200
	DefaultListLimit = 20
	MaxListLimit     = 100

	shareIDAttempts = 3
)

// NewShareID returns 22 URL-safe characters drawn from a random UUID.
func NewShareID() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// FormService manages the form aggregate.
type FormService struct {
	forms    repository.FormRepository
	accounts repository.AccountRepository
	baseURL  string
	logger   *slog.Logger

	newShareID func() string
}

func NewFormService(
	forms repository.FormRepository,
	accounts repository.AccountRepository,
	baseURL string,
	logger *slog.Logger,
) *FormService {
	return &FormService{
		forms:      forms,
		accounts:   accounts,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
		newShareID: NewShareID,
	}
}

// Create validates in and stores a new form owned by userID. The slug is
// derived from the title unless in.Slug is given, in which case it is
// pinned. A share id collision is retried with a fresh id.
func (s *FormService) Create(ctx context.Context, userID int64, in model.FormInput) (*model.Form, error) {
	form := &model.Form{
		UserID: userID,
		Title:  strings.TrimSpace(in.Title),
		Fields: in.Fields,
	}
	if form.Fields == nil {
		form.Fields = []model.FormField{}
	}
	if err := validateTitle(form.Title); err != nil {
		return nil, err
	}
	if err := validateFields(form.Fields); err != nil {
		return nil, err
	}
	applySlug(form, in.Slug)

	patch := model.FormPatch{
		WhatsAppNumber:     in.WhatsAppNumber,
		GoogleSheetID:      in.GoogleSheetID,
		GoogleSheetName:    in.GoogleSheetName,
		ConnectedAccountID: in.ConnectedAccountID,
		SubmitButtonText:   in.SubmitButtonText,
	}
	if err := s.applySettings(ctx, form, patch); err != nil {
		return nil, err
	}

	var err error
	for attempt := 0; attempt < shareIDAttempts; attempt++ {
		form.ShareID = s.newShareID()
		err = s.forms.Create(ctx, form)
		if !errors.Is(err, apperror.ErrConflict) {
			break
		}
		s.logger.Warn("share id collision, retrying", slog.Int("attempt", attempt+1))
	}
	if err != nil {
		s.logger.Error("failed to create form",
			slog.Int64("userId", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating form: %w", err)
	}

	s.logger.Info("form created",
		slog.Int64("id", form.ID),
		slog.String("shareId", form.ShareID),
		slog.Int("fields", len(form.Fields)),
	)
	return form, nil
}

// Update merges patch into the form. Only the owner may update.
func (s *FormService) Update(ctx context.Context, userID, id int64, patch model.FormPatch) (*model.Form, error) {
	form, err := s.GetForOwner(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		form.Title = title
	}
	if patch.Fields != nil {
		fs := *patch.Fields
		if fs == nil {
			fs = []model.FormField{}
		}
		if err := validateFields(fs); err != nil {
			return nil, err
		}
		form.Fields = fs
	}
	if patch.Title != nil || patch.Slug != nil {
		applySlug(form, patch.Slug)
	}
	if err := s.applySettings(ctx, form, patch); err != nil {
		return nil, err
	}

	if err := s.forms.Update(ctx, form); err != nil {
		s.logger.Error("failed to update form",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating form: %w", err)
	}

	s.logger.Info("form updated", slog.Int64("id", form.ID))
	return form, nil
}

// Save creates the form when id is zero and updates it otherwise. An
// update replaces every setting, so absent optional values are cleared
// and an absent slug unpins it.
func (s *FormService) Save(ctx context.Context, userID, id int64, in model.FormInput) (*model.Form, error) {
	if id == 0 {
		return s.Create(ctx, userID, in)
	}
	fs := in.Fields
	patch := model.FormPatch{
		Title:              &in.Title,
		Slug:               orClear(in.Slug),
		Fields:             &fs,
		WhatsAppNumber:     orClear(in.WhatsAppNumber),
		GoogleSheetID:      orClear(in.GoogleSheetID),
		GoogleSheetName:    orClear(in.GoogleSheetName),
		ConnectedAccountID: in.ConnectedAccountID,
		SubmitButtonText:   orClear(in.SubmitButtonText),
	}
	if patch.ConnectedAccountID == nil {
		var none int64
		patch.ConnectedAccountID = &none
	}
	return s.Update(ctx, userID, id, patch)
}

// GetForOwner returns the full form, or Forbidden when userID is not the
// owner.
func (s *FormService) GetForOwner(ctx context.Context, userID, id int64) (*model.Form, error) {
	form, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if form.UserID != userID {
		return nil, apperror.Forbidden("you do not own this form")
	}
	return form, nil
}

// GetForViewer is a read by id. The owner sees everything, anyone else
// sees the form without its WhatsApp and spreadsheet settings. userID is
// zero for anonymous viewers.
func (s *FormService) GetForViewer(ctx context.Context, userID, id int64) (*model.Form, error) {
	form, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != 0 && form.UserID == userID {
		return form, nil
	}
	redacted := form.Redacted()
	return &redacted, nil
}

// GetPublic resolves a share link. The WhatsApp number is kept for the
// submit redirect, spreadsheet settings are not.
func (s *FormService) GetPublic(ctx context.Context, shareID string) (*model.Form, error) {
	form, err := s.getShared(ctx, shareID)
	if err != nil {
		return nil, err
	}
	public := form.Public()
	return &public, nil
}

// getShared returns the unredacted form behind a share id, for internal
// use by the submission flow.
func (s *FormService) getShared(ctx context.Context, shareID string) (*model.Form, error) {
	shareID = strings.TrimSpace(shareID)
	if shareID == "" {
		return nil, apperror.ValidationFailed("shareId", "share id is required")
	}
	form, err := s.forms.GetByShareID(ctx, shareID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("form", shareID)
		}
		return nil, fmt.Errorf("fetching shared form: %w", err)
	}
	return form, nil
}

func (s *FormService) get(ctx context.Context, id int64) (*model.Form, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "form id must be positive")
	}
	form, err := s.forms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("form", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("fetching form: %w", err)
	}
	return form, nil
}

// List returns the user's forms, newest first.
func (s *FormService) List(ctx context.Context, userID int64, limit, offset int) ([]model.Form, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	forms, err := s.forms.ListByUser(ctx, userID, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list forms", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing forms: %w", err)
	}
	return forms, nil
}

// Delete removes the form and its submissions.
func (s *FormService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.GetForOwner(ctx, userID, id); err != nil {
		return err
	}
	if err := s.forms.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting form: %w", err)
	}
	s.logger.Info("form deleted", slog.Int64("id", id))
	return nil
}

// ShareInfo is what the share dialog shows.
type ShareInfo struct {
	ShareID  string `json:"shareId"`
	Slug     string `json:"slug"`
	ShareURL string `json:"shareUrl"`
}

// Share returns the public link of an owned form.
func (s *FormService) Share(ctx context.Context, userID, id int64) (*ShareInfo, error) {
	form, err := s.GetForOwner(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return &ShareInfo{ShareID: form.ShareID, Slug: form.Slug, ShareURL: s.ShareURL(form)}, nil
}

// ShareURL is BASE_URL/share/{shareId}/{slug}. The slug segment is
// omitted when empty.
func (s *FormService) ShareURL(form *model.Form) string {
	u := s.baseURL + "/share/" + form.ShareID
	if form.Slug != "" {
		u += "/" + form.Slug
	}
	return u
}

// applySettings validates and merges the optional settings. An empty
// string clears a text setting and a zero account id clears the account.
func (s *FormService) applySettings(ctx context.Context, form *model.Form, p model.FormPatch) error {
	if p.WhatsAppNumber != nil {
		n := strings.TrimSpace(*p.WhatsAppNumber)
		if n == "" {
			form.WhatsAppNumber = nil
		} else {
			e164, err := submission.NormalizePhone(n)
			if err != nil {
				return apperror.ValidationFailed("whatsappNumber", "whatsapp number is not a valid phone number")
			}
			form.WhatsAppNumber = &e164
		}
	}
	if p.SubmitButtonText != nil {
		form.SubmitButtonText = trimmedOrNil(*p.SubmitButtonText)
	}
	if p.GoogleSheetID != nil {
		form.GoogleSheetID = trimmedOrNil(*p.GoogleSheetID)
	}
	if p.GoogleSheetName != nil {
		form.GoogleSheetName = trimmedOrNil(*p.GoogleSheetName)
	}
	if p.ConnectedAccountID != nil {
		if *p.ConnectedAccountID == 0 {
			form.ConnectedAccountID = nil
		} else {
			acct, err := s.accounts.GetByID(ctx, *p.ConnectedAccountID)
			if err != nil {
				if errors.Is(err, apperror.ErrNotFound) {
					return apperror.ValidationFailed("connectedAccountId", "connected account does not exist")
				}
				return fmt.Errorf("checking connected account: %w", err)
			}
			if acct.UserID != form.UserID {
				return apperror.Forbidden("connected account belongs to another user")
			}
			id := acct.ID
			form.ConnectedAccountID = &id
		}
	}
	return nil
}

// applySlug pins an explicit slug, unpins on an explicit empty one, and
// otherwise re-derives from the title while unpinned.
func applySlug(form *model.Form, explicit *string) {
	if explicit != nil {
		v := slug.Make(*explicit)
		if v != "" {
			form.Slug = v
			form.SlugPinned = true
			return
		}
		form.SlugPinned = false
	}
	if !form.SlugPinned {
		form.Slug = slug.Make(form.Title)
	}
}

func validateTitle(title string) error {
	if title == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	return nil
}

// validateFields checks structure only: known types, unique non-empty ids
// and a renderable rating bound. Answers are checked at submit time.
func validateFields(fs []model.FormField) error {
	if len(fs) > MaxFieldCount {
		return apperror.ValidationFailed("fields",
			fmt.Sprintf("a form can have at most %d fields", MaxFieldCount))
	}
	seen := make(map[string]bool, len(fs))
	for i, f := range fs {
		if strings.TrimSpace(f.ID) == "" {
			return apperror.ValidationFailed("fields", fmt.Sprintf("field %d has no id", i+1))
		}
		if seen[f.ID] {
			return apperror.ValidationFailed(f.ID, fmt.Sprintf("duplicate field id %q", f.ID))
		}
		seen[f.ID] = true
		if !f.Type.Valid() {
			return apperror.ValidationFailed(f.ID, fmt.Sprintf("unknown field type %q", f.Type))
		}
		if r, ok := f.Options.(model.RatingMax); ok && (r < model.MinRatingMax || r > model.MaxRatingMax) {
			return apperror.ValidationFailed(f.ID,
				fmt.Sprintf("rating must have between %d and %d stars", model.MinRatingMax, model.MaxRatingMax))
		}
	}
	return nil
}

func trimmedOrNil(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// orClear turns an absent create setting into an explicit clear for Save.
func orClear(v *string) *string {
	if v == nil {
		empty := ""
		return &empty
	}
	return v
}
