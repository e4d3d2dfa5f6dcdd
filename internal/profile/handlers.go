package profile

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aniemarie21/maes-laboratory-system/pkg/httputil"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// Handler handles HTTP requests for the caller's profile
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new profile HTTP handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// RegisterRoutes mounts the profile routes
func (h *Handler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/profile", h.getHandler).Methods(http.MethodGet)
	api.HandleFunc("/profile", h.upsertHandler).Methods(http.MethodPut)
}

func (h *Handler) getHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	p, err := h.service.Get(r.Context(), actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) upsertHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	var req types.ProfileUpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	p, err := h.service.Upsert(r.Context(), &req, actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}
