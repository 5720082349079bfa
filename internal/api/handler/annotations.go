package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/pokerstats/internal/api/middleware"
	"github.com/mcoot/pokerstats/internal/api/request"
	"github.com/mcoot/pokerstats/internal/api/response"
	"github.com/mcoot/pokerstats/internal/services/annotations"
)

// AnnotationsHandler handles note and watchlist endpoints
type AnnotationsHandler struct {
	annotations *annotations.Service
}

// NewAnnotationsHandler creates a new annotations handler
func NewAnnotationsHandler(annotations *annotations.Service) *AnnotationsHandler {
	return &AnnotationsHandler{
		annotations: annotations,
	}
}

// GetNote handles GET /api/v1/notes/{username}
func (h *AnnotationsHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	note, err := h.annotations.Note(r.Context(), identity.UserID, mux.Vars(r)["username"])
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.NoteFromModel(note))
}

// PutNote handles PUT /api/v1/notes/{username}
func (h *AnnotationsHandler) PutNote(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	var req request.PutNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	note, err := h.annotations.SetNote(r.Context(), identity.UserID, mux.Vars(r)["username"], req.Text)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.NoteFromModel(note))
}

// ListWatchlist handles GET /api/v1/watchlist
func (h *AnnotationsHandler) ListWatchlist(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	items, err := h.annotations.Watchlist(r.Context(), identity.UserID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.WatchlistFromItems(items))
}

// Watch handles POST /api/v1/watchlist
func (h *AnnotationsHandler) Watch(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	var req request.WatchRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}

	player, err := h.annotations.Watch(r.Context(), identity.UserID, req.Username)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// Unwatch handles DELETE /api/v1/watchlist?username=
func (h *AnnotationsHandler) Unwatch(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	username := r.URL.Query().Get("username")
	if username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}

	if err := h.annotations.Unwatch(r.Context(), identity.UserID, username); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
