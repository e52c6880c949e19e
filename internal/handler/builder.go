package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/builder"
	"github.com/sakif/waform/internal/fields"
	"github.com/sakif/waform/internal/model"
	"github.com/sakif/waform/internal/render"
	"github.com/sakif/waform/internal/service"
)

// BuilderHandler drives server-side builder sessions. Every mutating call
// answers with the session's full snapshot so the client can re-render
// from a single source of truth.
type BuilderHandler struct {
	sessions *builder.Store
	forms    *service.FormService
	renderer *render.Renderer
	logger   *slog.Logger
}

func NewBuilderHandler(sessions *builder.Store, forms *service.FormService, renderer *render.Renderer, logger *slog.Logger) *BuilderHandler {
	return &BuilderHandler{sessions: sessions, forms: forms, renderer: renderer, logger: logger}
}

type sessionResponse struct {
	SessionID string           `json:"sessionId"`
	State     builder.Snapshot `json:"state"`
}

func (h *BuilderHandler) session(w http.ResponseWriter, r *http.Request) (*builder.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "sid"), currentUser(r))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return s, true
}

// mutate runs fn on the session's state and answers with the result.
func (h *BuilderHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(*builder.State)) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var snap builder.Snapshot
	s.Do(func(st *builder.State) {
		fn(st)
		snap = st.Snapshot()
	})
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: s.ID, State: snap})
}

type createSessionRequest struct {
	FormID int64 `json:"formId"`
}

// HandleCreate starts a session from scratch, or loaded with an owned form
// when formId is given.
//
// HTTP: POST /api/builder/sessions
func (h *BuilderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	var form *model.Form
	if req.FormID != 0 {
		f, err := h.forms.GetForOwner(r.Context(), currentUser(r), req.FormID)
		if err != nil {
			writeError(w, err)
			return
		}
		form = f
	}

	s := h.sessions.Create(currentUser(r))
	var snap builder.Snapshot
	s.Do(func(st *builder.State) {
		if form != nil {
			st.Load(form)
		}
		snap = st.Snapshot()
	})
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: s.ID, State: snap})
}

// HTTP: GET /api/builder/sessions/{sid}
func (h *BuilderHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(*builder.State) {})
}

// HTTP: DELETE /api/builder/sessions/{sid}
func (h *BuilderHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "sid"), currentUser(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addFieldRequest struct {
	Type model.FieldType `json:"type"`
}

// HTTP: POST /api/builder/sessions/{sid}/fields
func (h *BuilderHandler) HandleAddField(w http.ResponseWriter, r *http.Request) {
	var req addFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperror.ValidationFailed("type", "type must be one of the palette field types"))
		return
	}
	if !req.Type.Valid() {
		writeError(w, apperror.ValidationFailed("type", "type must be one of the palette field types"))
		return
	}
	h.mutate(w, r, func(st *builder.State) { st.AddField(req.Type) })
}

type updateFieldRequest struct {
	Label       *string   `json:"label"`
	Placeholder *string   `json:"placeholder"`
	Required    *bool     `json:"required"`
	Options     *[]string `json:"options"`
}

// HandleUpdateField merges the given properties into one field. Options
// are read according to the field's type: a choice list, or a one-element
// star bound for ratings.
//
// HTTP: PATCH /api/builder/sessions/{sid}/fields/{fieldId}
func (h *BuilderHandler) HandleUpdateField(w http.ResponseWriter, r *http.Request) {
	var req updateFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "fieldId")
	h.mutate(w, r, func(st *builder.State) {
		p := builder.Patch{Label: req.Label, Placeholder: req.Placeholder, Required: req.Required}
		if req.Options != nil {
			if f, ok := st.Field(id); ok {
				p.Options = model.DecodeOptions(f.Type, *req.Options)
			}
		}
		st.UpdateField(id, p)
	})
}

// HTTP: DELETE /api/builder/sessions/{sid}/fields/{fieldId}
func (h *BuilderHandler) HandleRemoveField(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fieldId")
	h.mutate(w, r, func(st *builder.State) { st.RemoveField(id) })
}

type reorderRequest struct {
	ActiveID string `json:"activeId"`
	OverID   string `json:"overId"`
}

// HTTP: POST /api/builder/sessions/{sid}/reorder
func (h *BuilderHandler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.mutate(w, r, func(st *builder.State) { st.ReorderFields(req.ActiveID, req.OverID) })
}

type selectionRequest struct {
	FieldID *string `json:"fieldId"`
}

// HTTP: PUT /api/builder/sessions/{sid}/selection
func (h *BuilderHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := ""
	if req.FieldID != nil {
		id = *req.FieldID
	}
	h.mutate(w, r, func(st *builder.State) { st.SelectField(id) })
}

type sheetTarget struct {
	AccountID *int64  `json:"accountId"`
	SheetID   *string `json:"sheetId"`
	SheetName *string `json:"sheetName"`
}

// settingsRequest keeps absent keys apart from explicit nulls: a key that
// is present, even as null or "", changes the setting.
type settingsRequest struct {
	Title            *string
	Slug             *string
	WhatsAppNumber   *string
	SubmitButtonText *string
	Sheet            *sheetTarget

	present map[string]bool
}

func (s *settingsRequest) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s.present = make(map[string]bool, len(raw))
	for key, val := range raw {
		s.present[key] = true
		if bytes.Equal(bytes.TrimSpace(val), []byte("null")) {
			continue
		}
		var err error
		switch key {
		case "title":
			err = json.Unmarshal(val, &s.Title)
		case "slug":
			err = json.Unmarshal(val, &s.Slug)
		case "whatsappNumber":
			err = json.Unmarshal(val, &s.WhatsAppNumber)
		case "submitButtonText":
			err = json.Unmarshal(val, &s.SubmitButtonText)
		case "sheet":
			err = json.Unmarshal(val, &s.Sheet)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// HandleSettings changes form-level settings. {"sheet": null} clears the
// spreadsheet target.
//
// HTTP: PUT /api/builder/sessions/{sid}/settings
func (h *BuilderHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.mutate(w, r, func(st *builder.State) {
		if req.Title != nil {
			st.SetTitle(*req.Title)
		}
		if req.present["slug"] {
			v := ""
			if req.Slug != nil {
				v = *req.Slug
			}
			st.SetSlug(v)
		}
		if req.present["whatsappNumber"] {
			st.SetWhatsAppNumber(req.WhatsAppNumber)
		}
		if req.present["submitButtonText"] {
			st.SetSubmitButtonText(req.SubmitButtonText)
		}
		if req.present["sheet"] {
			if req.Sheet == nil {
				st.SetSheetTarget(nil, nil, nil)
			} else {
				st.SetSheetTarget(req.Sheet.AccountID, req.Sheet.SheetID, req.Sheet.SheetName)
			}
		}
	})
}

// HTTP: POST /api/builder/sessions/{sid}/reset
func (h *BuilderHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(st *builder.State) { st.Reset() })
}

type saveResponse struct {
	Form  *model.Form      `json:"form"`
	State builder.Snapshot `json:"state"`
}

// HandleSave persists the draft: a create the first time, an update of
// the same form afterwards. Concurrent saves of one form are last write
// wins.
//
// HTTP: POST /api/builder/sessions/{sid}/save
func (h *BuilderHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	userID := currentUser(r)

	var (
		form *model.Form
		snap builder.Snapshot
		err  error
	)
	s.Do(func(st *builder.State) {
		if st.FormID() == 0 {
			form, err = h.forms.Create(r.Context(), userID, st.Input())
		} else {
			form, err = h.forms.Update(r.Context(), userID, st.FormID(), st.Changes())
		}
		if err != nil {
			return
		}
		st.MarkSaved(form)
		snap = st.Snapshot()
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Form: form, State: snap})
}

// HandlePreview renders the draft exactly as the builder canvas shows it:
// inputs disabled, nothing submittable.
//
// HTTP: GET /api/builder/sessions/{sid}/preview
func (h *BuilderHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var page render.Page
	s.Do(func(st *builder.State) {
		page = render.Build(st, fields.ModeBuilderPreview, nil)
	})

	var buf bytes.Buffer
	write := h.renderer.Form
	if r.URL.Query().Get("fragment") == "1" {
		write = h.renderer.Fragment
	}
	if err := write(&buf, page); err != nil {
		h.logger.Error("failed to render builder preview", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
