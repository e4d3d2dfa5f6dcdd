package chatbot

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aniemarie21/maes-laboratory-system/pkg/httputil"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// Handler serves the public chatbot endpoint
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a chatbot HTTP handler
func NewHandler(svc *Service, log *logger.Logger) *Handler {
	return &Handler{service: svc, logger: log}
}

// RegisterRoutes mounts the chatbot route. It needs no authentication;
// a signed-in caller is recorded when present.
func (h *Handler) RegisterRoutes(public *mux.Router) {
	public.HandleFunc("/chatbot", h.chatHandler).Methods(http.MethodPost)
}

func (h *Handler) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		httputil.WriteError(w, r, h.logger, types.NewValidationError(types.ErrCodeInvalidInput, "request body is not valid JSON", nil))
		return
	}

	userID := ""
	if actor, ok := httputil.ActorFrom(r.Context()); ok {
		userID = actor.UserID
	}

	httputil.WriteJSON(w, http.StatusOK, h.service.Chat(r.Context(), &req, userID))
}
