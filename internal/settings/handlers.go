package settings

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aniemarie21/maes-laboratory-system/pkg/httputil"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// Handler handles HTTP requests for system settings
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new settings HTTP handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// RegisterRoutes mounts the settings routes
func (h *Handler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/settings", h.listHandler).Methods(http.MethodGet)
	api.HandleFunc("/settings/{key}", h.getHandler).Methods(http.MethodGet)
	api.HandleFunc("/settings/{key}", h.setHandler).Methods(http.MethodPut)
}

func (h *Handler) listHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	settings, err := h.service.List(r.Context(), actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"settings": settings})
}

func (h *Handler) getHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	setting, err := h.service.Get(r.Context(), mux.Vars(r)["key"], actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, setting)
}

func (h *Handler) setHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	var req types.SettingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	setting, err := h.service.Set(r.Context(), mux.Vars(r)["key"], &req, actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, setting)
}
