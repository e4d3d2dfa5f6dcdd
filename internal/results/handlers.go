package results

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aniemarie21/maes-laboratory-system/pkg/httputil"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// Handler serves the test result endpoints
type Handler struct {
	service interfaces.ResultService
	logger  *logger.Logger
}

// NewHandler creates a result HTTP handler
func NewHandler(svc interfaces.ResultService, log *logger.Logger) *Handler {
	return &Handler{service: svc, logger: log}
}

// RegisterRoutes mounts the result routes on the authenticated API router
func (h *Handler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/appointments/{id}/result", h.createHandler).Methods(http.MethodPost)
	api.HandleFunc("/appointments/{id}/result", h.byAppointmentHandler).Methods(http.MethodGet)
	api.HandleFunc("/results", h.listHandler).Methods(http.MethodGet)
	api.HandleFunc("/results/{id}", h.getHandler).Methods(http.MethodGet)
	api.HandleFunc("/results/{id}/content", h.contentHandler).Methods(http.MethodPut)
	api.HandleFunc("/results/{id}/advance", h.advanceHandler).Methods(http.MethodPost)
}

func (h *Handler) createHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	res, err := h.service.CreateResult(r.Context(), mux.Vars(r)["id"], actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) byAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	res, err := h.service.GetResultByAppointment(r.Context(), mux.Vars(r)["id"], actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) listHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	results, err := h.service.ListResults(r.Context(), actor,
		httputil.QueryInt(r, "limit", defaultListLimit),
		httputil.QueryInt(r, "offset", 0))
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	if results == nil {
		results = []*types.TestResult{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

func (h *Handler) getHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	res, err := h.service.GetResult(r.Context(), mux.Vars(r)["id"], actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) contentHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	var req types.ResultContentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	res, err := h.service.AttachContent(r.Context(), mux.Vars(r)["id"], &req, actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) advanceHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	var req types.AdvanceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	res, err := h.service.Advance(r.Context(), mux.Vars(r)["id"], req.Status, actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
