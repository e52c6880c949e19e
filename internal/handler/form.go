package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/waform/internal/auth"
	"github.com/sakif/waform/internal/fields"
	"github.com/sakif/waform/internal/model"
	"github.com/sakif/waform/internal/service"
)

// FormHandler serves the owner's form API.
type FormHandler struct {
	forms       *service.FormService
	submissions *service.SubmissionService
	logger      *slog.Logger
}

func NewFormHandler(forms *service.FormService, submissions *service.SubmissionService, logger *slog.Logger) *FormHandler {
	return &FormHandler{forms: forms, submissions: submissions, logger: logger}
}

// HandleFieldTypes returns the palette: every field type with its
// defaults and editable properties.
//
// HTTP: GET /api/fields
func (h *FormHandler) HandleFieldTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, fields.Palette())
}

// HTTP: GET /api/forms?limit=20&offset=0
func (h *FormHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	forms, err := h.forms.List(r.Context(), currentUser(r), queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, forms)
}

// HTTP: POST /api/forms
func (h *FormHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.FormInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	form, err := h.forms.Create(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, form)
}

type saveRequest struct {
	ID int64 `json:"id"`
	model.FormInput
}

// HandleSave creates when the body has no id and replaces the form's
// contents when it does.
//
// HTTP: POST /api/forms/save
func (h *FormHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	form, err := h.forms.Save(r.Context(), currentUser(r), req.ID, req.FormInput)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if req.ID == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, form)
}

// HandleGet returns the form. Visitors other than the owner get it without
// the WhatsApp and spreadsheet settings.
//
// HTTP: GET /api/forms/{id}
func (h *FormHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	viewer, _ := auth.UserIDFromContext(r.Context())
	form, err := h.forms.GetForViewer(r.Context(), viewer, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// HTTP: PUT /api/forms/{id}
func (h *FormHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var patch model.FormPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, err)
		return
	}
	form, err := h.forms.Update(r.Context(), currentUser(r), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// HTTP: DELETE /api/forms/{id}
func (h *FormHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.forms.Delete(r.Context(), currentUser(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HTTP: GET /api/forms/{id}/share
func (h *FormHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	info, err := h.forms.Share(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HTTP: GET /api/forms/{id}/submissions?limit=20&offset=0
func (h *FormHandler) HandleSubmissions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	page, err := h.submissions.List(r.Context(), currentUser(r), id, queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
