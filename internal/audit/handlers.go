package audit

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aniemarie21/maes-laboratory-system/pkg/httputil"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/rbac"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

const maxListLimit = 500

// Handler serves the audit log to administrators
type Handler struct {
	repository interfaces.AuditRepository
	logger     *logger.Logger
}

// NewHandler creates an audit HTTP handler
func NewHandler(repo interfaces.AuditRepository, log *logger.Logger) *Handler {
	return &Handler{repository: repo, logger: log}
}

// RegisterRoutes mounts the audit routes
func (h *Handler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/audit", h.listHandler).Methods(http.MethodGet)
}

func (h *Handler) listHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	if err := rbac.Require(actor, rbac.PermViewAudit); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	q := r.URL.Query()
	filters := &types.AuditFilters{
		ActorID:  q.Get("actor_id"),
		Entity:   q.Get("entity"),
		EntityID: q.Get("entity_id"),
		Limit:    httputil.QueryInt(r, "limit", defaultListLimit),
		Offset:   httputil.QueryInt(r, "offset", 0),
	}
	if filters.Limit > maxListLimit {
		filters.Limit = maxListLimit
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	entries, err := h.repository.ListEntries(r.Context(), filters)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	if entries == nil {
		entries = []*types.AuditEntry{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
