package billing

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/aniemarie21/maes-laboratory-system/pkg/httputil"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// Handler serves the payment endpoints
type Handler struct {
	service interfaces.BillingService
	logger  *logger.Logger
}

// NewHandler creates a billing HTTP handler
func NewHandler(svc interfaces.BillingService, log *logger.Logger) *Handler {
	return &Handler{service: svc, logger: log}
}

// RegisterRoutes mounts the payment routes on the authenticated API router
func (h *Handler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/payments", h.recordHandler).Methods(http.MethodPost)
	api.HandleFunc("/payments", h.listHandler).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}", h.getHandler).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}/verify", h.verifyHandler).Methods(http.MethodPost)
	api.HandleFunc("/payments/{id}/receipt", h.receiptHandler).Methods(http.MethodGet)
	api.HandleFunc("/appointments/{id}/payments/summary", h.summaryHandler).Methods(http.MethodGet)
}

func (h *Handler) recordHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	var req types.PaymentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	p, err := h.service.RecordPayment(r.Context(), &req, actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) listHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	appointmentID := r.URL.Query().Get("appointment_id")
	if appointmentID == "" {
		httputil.WriteError(w, r, h.logger, types.NewValidationError(types.ErrCodeInvalidInput, "appointment_id is required", map[string]interface{}{
			"appointment_id": "is required",
		}))
		return
	}

	payments, err := h.service.ListPayments(r.Context(), appointmentID, actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	if payments == nil {
		payments = []*types.Payment{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"payments": payments,
		"count":    len(payments),
	})
}

func (h *Handler) getHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	p, err := h.service.GetPayment(r.Context(), mux.Vars(r)["id"], actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) verifyHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	p, err := h.service.VerifyPayment(r.Context(), mux.Vars(r)["id"], actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) receiptHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	id := mux.Vars(r)["id"]
	var buf bytes.Buffer
	if err := h.service.WriteReceipt(r.Context(), id, actor, &buf); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="receipt-%s.pdf"`, id))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Warn("Failed to write receipt")
	}
}

func (h *Handler) summaryHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	summary, err := h.service.Summary(r.Context(), mux.Vars(r)["id"], actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}
