package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/waform/internal/service"
)

// PublicHandler is the anonymous JSON API behind share links.
type PublicHandler struct {
	forms       *service.FormService
	submissions *service.SubmissionService
}

func NewPublicHandler(forms *service.FormService, submissions *service.SubmissionService) *PublicHandler {
	return &PublicHandler{forms: forms, submissions: submissions}
}

// HTTP: GET /api/public/forms/{shareId}
func (h *PublicHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	form, err := h.forms.GetPublic(r.Context(), chi.URLParam(r, "shareId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// submittedAnswers reads the answers of a submit body. The body is an
// object keyed by field id; {"data": {...}} is also accepted when "data"
// is the only key and holds an object.
func submittedAnswers(r *http.Request) (map[string]any, error) {
	var body map[string]any
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}
	if body == nil {
		return map[string]any{}, nil
	}
	if len(body) == 1 {
		if inner, ok := body["data"].(map[string]any); ok {
			return inner, nil
		}
	}
	return body, nil
}

// HandleSubmit stores the answers and returns the WhatsApp link the
// client should open.
//
// HTTP: POST /api/public/forms/{shareId}/submissions
func (h *PublicHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	answers, err := submittedAnswers(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.submissions.Submit(r.Context(), chi.URLParam(r, "shareId"), answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
