package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/pokerstats/internal/api/middleware"
	"github.com/mcoot/pokerstats/internal/api/request"
	"github.com/mcoot/pokerstats/internal/api/response"
	"github.com/mcoot/pokerstats/internal/model"
	"github.com/mcoot/pokerstats/internal/services/catalog"
	"github.com/mcoot/pokerstats/internal/services/ingest"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	catalog  *catalog.Service
	resolver *ingest.Resolver
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(catalog *catalog.Service, resolver *ingest.Resolver) *PlayerHandler {
	return &PlayerHandler{
		catalog:  catalog,
		resolver: resolver,
	}
}

// Search handles GET /api/v1/players?q=&limit=
func (h *PlayerHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	players, err := h.catalog.Search(r.Context(), query.Get("q"), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayersFromModel(players))
}

// Get handles GET /api/v1/players/{username}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	profile, err := h.catalog.Profile(r.Context(), username, middleware.Viewer(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ProfileFromCatalog(profile))
}

// LinkAlias handles POST /api/v1/players/{id}/aliases
func (h *PlayerHandler) LinkAlias(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(mux.Vars(r)["id"])

	var req request.LinkAliasRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	platform, err := model.ParsePlatform(req.Platform)
	if err != nil {
		WriteError(w, err)
		return
	}

	alias, err := h.resolver.Link(r.Context(), req.Username, platform, playerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.AliasFromModel(alias))
}

// EnrichProfile handles PUT /api/v1/players/{id}/profile
func (h *PlayerHandler) EnrichProfile(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(mux.Vars(r)["id"])

	var req request.EnrichProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.catalog.Enrich(r.Context(), playerID, model.ProfileEnrichment{
		Summary:           req.Summary,
		ExploitStrategies: req.ExploitStrategies,
		Tags:              req.Tags,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}
