package notification

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aniemarie21/maes-laboratory-system/pkg/httputil"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// Handler serves the notification endpoints
type Handler struct {
	service interfaces.NotificationService
	logger  *logger.Logger
}

// NewHandler creates a notification HTTP handler
func NewHandler(svc interfaces.NotificationService, log *logger.Logger) *Handler {
	return &Handler{service: svc, logger: log}
}

// RegisterRoutes mounts the notification routes
func (h *Handler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/notifications", h.listHandler).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read-all", h.readAllHandler).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{id}/read", h.readHandler).Methods(http.MethodPost)
}

func (h *Handler) listHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	notifications, err := h.service.List(r.Context(), actor, unreadOnly,
		httputil.QueryInt(r, "limit", defaultListLimit),
		httputil.QueryInt(r, "offset", 0))
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	if notifications == nil {
		notifications = []*types.Notification{}
	}

	unread, err := h.service.UnreadCount(r.Context(), actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

func (h *Handler) readHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	if err := h.service.MarkRead(r.Context(), mux.Vars(r)["id"], actor); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) readAllHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	n, err := h.service.MarkAllRead(r.Context(), actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"marked": n})
}
