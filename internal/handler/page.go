// Package handler contains the HTTP handlers: JSON endpoints under /api
// and the server-rendered share and preview pages.
//
// Handlers only parse requests, call a service and write the response.
// Business rules live in the service package.
package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/fields"
	"github.com/sakif/waform/internal/render"
	"github.com/sakif/waform/internal/service"
	"github.com/sakif/waform/internal/submission"
)

// PageHandler serves the HTML form pages.
type PageHandler struct {
	forms       *service.FormService
	submissions *service.SubmissionService
	renderer    *render.Renderer
	logger      *slog.Logger
}

func NewPageHandler(forms *service.FormService, submissions *service.SubmissionService, renderer *render.Renderer, logger *slog.Logger) *PageHandler {
	return &PageHandler{forms: forms, submissions: submissions, renderer: renderer, logger: logger}
}

// HandleShare shows the public form. The slug segment is cosmetic and
// ignored.
//
// HTTP: GET /share/{shareId} and /share/{shareId}/{slug}
func (h *PageHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	form, err := h.forms.GetPublic(r.Context(), chi.URLParam(r, "shareId"))
	if err != nil {
		h.pageError(w, err)
		return
	}
	page := render.Build(form, fields.ModePublicSubmit, nil)
	page.Action = r.URL.Path
	h.writePage(w, http.StatusOK, page)
}

// HandleShareSubmit accepts a browser form post. Invalid answers re-render
// the form with messages; a stored submission shows the thank-you page,
// which forwards to WhatsApp when the form has a number.
//
// HTTP: POST /share/{shareId} and /share/{shareId}/{slug}
func (h *PageHandler) HandleShareSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form post", http.StatusBadRequest)
		return
	}
	raw := postedValues(r)
	shareID := chi.URLParam(r, "shareId")

	res, err := h.submissions.Submit(r.Context(), shareID, raw)
	var invalid *service.InvalidAnswers
	switch {
	case errors.As(err, &invalid):
		form, ferr := h.forms.GetPublic(r.Context(), shareID)
		if ferr != nil {
			h.pageError(w, ferr)
			return
		}
		page := render.Build(form, fields.ModePublicSubmit, raw)
		page.Action = r.URL.Path
		page.Errors = invalid.Fields
		h.writePage(w, http.StatusBadRequest, page)
		return
	case err != nil:
		h.pageError(w, err)
		return
	}

	form, err := h.forms.GetPublic(r.Context(), shareID)
	if err != nil {
		h.pageError(w, err)
		return
	}
	thanks := render.ThanksPage{
		Title:       form.Title,
		Message:     "Thank you! Your response has been recorded.",
		RedirectURL: res.WhatsAppURL,
	}
	var buf bytes.Buffer
	if err := h.renderer.Thanks(&buf, thanks); err != nil {
		h.renderFailed(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// HandleOwnerPreview shows an owned form live, as visitors see it.
//
// HTTP: GET /forms/{id}/preview
func (h *PageHandler) HandleOwnerPreview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.pageError(w, err)
		return
	}
	form, err := h.forms.GetForOwner(r.Context(), currentUser(r), id)
	if err != nil {
		h.pageError(w, err)
		return
	}
	page := render.Build(form, fields.ModeOwnerPreview, nil)
	page.Action = r.URL.Path
	h.writePage(w, http.StatusOK, page)
}

// HandleOwnerPreviewSubmit validates a test submission without storing it
// or contacting any integration.
//
// HTTP: POST /forms/{id}/preview
func (h *PageHandler) HandleOwnerPreviewSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.pageError(w, err)
		return
	}
	form, err := h.forms.GetForOwner(r.Context(), currentUser(r), id)
	if err != nil {
		h.pageError(w, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form post", http.StatusBadRequest)
		return
	}
	raw := postedValues(r)

	page := render.Build(form, fields.ModeOwnerPreview, raw)
	page.Action = r.URL.Path
	status := http.StatusOK
	if _, errs := submission.Check(form.Fields, raw); len(errs) > 0 {
		page.Errors = errs
		status = http.StatusBadRequest
	} else {
		page.Notice = "All answers are valid. Preview submissions are not saved."
	}
	h.writePage(w, status, page)
}

// postedValues keeps every posted key with all of its values; the field
// table decides whether a key is single or multi valued.
func postedValues(r *http.Request) map[string]any {
	raw := make(map[string]any, len(r.PostForm))
	for k, v := range r.PostForm {
		raw[k] = v
	}
	return raw
}

// writePage renders into a buffer first so a template failure can still
// produce a clean 500.
func (h *PageHandler) writePage(w http.ResponseWriter, status int, p render.Page) {
	var buf bytes.Buffer
	if err := h.renderer.Form(&buf, p); err != nil {
		h.renderFailed(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *PageHandler) renderFailed(w http.ResponseWriter, err error) {
	h.logger.Error("failed to render template", slog.String("error", err.Error()))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (h *PageHandler) pageError(w http.ResponseWriter, err error) {
	status, _ := errorStatus(err)
	msg := http.StatusText(status)
	if errors.Is(err, apperror.ErrNotFound) {
		msg = "form not found"
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("page request failed", slog.String("error", err.Error()))
	}
	http.Error(w, msg, status)
}
