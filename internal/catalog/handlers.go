package catalog

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aniemarie21/maes-laboratory-system/pkg/httputil"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// Handler serves the catalog endpoints
type Handler struct {
	service interfaces.CatalogService
	logger  *logger.Logger
}

// NewHandler creates a catalog HTTP handler
func NewHandler(svc interfaces.CatalogService, log *logger.Logger) *Handler {
	return &Handler{service: svc, logger: log}
}

// RegisterRoutes mounts the catalog routes on the authenticated API router
func (h *Handler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/departments", h.listDepartmentsHandler).Methods(http.MethodGet)
	api.HandleFunc("/departments", h.createDepartmentHandler).Methods(http.MethodPost)

	api.HandleFunc("/services", h.listServicesHandler).Methods(http.MethodGet)
	api.HandleFunc("/services", h.createServiceHandler).Methods(http.MethodPost)
	api.HandleFunc("/services/{id}", h.getServiceHandler).Methods(http.MethodGet)
	api.HandleFunc("/services/{id}", h.updateServiceHandler).Methods(http.MethodPut)
}

func (h *Handler) listDepartmentsHandler(w http.ResponseWriter, r *http.Request) {
	depts, err := h.service.ListDepartments(r.Context())
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"departments": depts})
}

func (h *Handler) createDepartmentHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	var req types.DepartmentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	dept, err := h.service.CreateDepartment(r.Context(), &req, actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, dept)
}

func (h *Handler) listServicesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := &types.ServiceFilters{
		DepartmentID:  q.Get("department_id"),
		AvailableOnly: q.Get("available") == "true",
	}

	services, err := h.service.ListServices(r.Context(), filters)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"services": services})
}

func (h *Handler) createServiceHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	var req types.ServiceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	svc, err := h.service.CreateService(r.Context(), &req, actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, svc)
}

func (h *Handler) getServiceHandler(w http.ResponseWriter, r *http.Request) {
	svc, err := h.service.GetService(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, svc)
}

func (h *Handler) updateServiceHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	var updates types.ServiceUpdates
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	svc, err := h.service.UpdateService(r.Context(), mux.Vars(r)["id"], &updates, actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, svc)
}
