package booking

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/aniemarie21/maes-laboratory-system/pkg/httputil"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// Handler serves the appointment, pricing and dashboard endpoints
type Handler struct {
	service interfaces.BookingService
	logger  *logger.Logger
	loc     *time.Location
}

// NewHandler creates a booking HTTP handler; query dates are read in loc
func NewHandler(svc interfaces.BookingService, log *logger.Logger, loc *time.Location) *Handler {
	return &Handler{service: svc, logger: log, loc: loc}
}

// RegisterRoutes mounts the booking routes on the authenticated API router
func (h *Handler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/pricing/quote", h.quoteHandler).Methods(http.MethodPost)

	api.HandleFunc("/appointments", h.bookHandler).Methods(http.MethodPost)
	api.HandleFunc("/appointments", h.listHandler).Methods(http.MethodGet)
	api.HandleFunc("/appointments/export", h.exportHandler).Methods(http.MethodGet)
	api.HandleFunc("/appointments/{id}", h.getHandler).Methods(http.MethodGet)
	api.HandleFunc("/appointments/{id}/cancel", h.cancelHandler).Methods(http.MethodPost)
	api.HandleFunc("/appointments/{id}/status", h.statusHandler).Methods(http.MethodPut)
	api.HandleFunc("/appointments/{id}/assign", h.assignHandler).Methods(http.MethodPut)

	api.HandleFunc("/dashboard/stats", h.statsHandler).Methods(http.MethodGet)
}

func (h *Handler) quoteHandler(w http.ResponseWriter, r *http.Request) {
	var req types.QuoteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	quote, err := h.service.Quote(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, quote)
}

// bookHandler accepts either a JSON body or a submitted booking form
func (h *Handler) bookHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	req, err := decodeBookingRequest(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	apt, err := h.service.Book(r.Context(), req, actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, apt)
}

func decodeBookingRequest(r *http.Request) (*types.BookingRequest, error) {
	req := &types.BookingRequest{}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, types.NewValidationError(types.ErrCodeInvalidInput, "could not read booking form", nil)
		}
		req.PatientID = r.PostForm.Get("patient_id")
		req.ServiceIDs = formServiceIDs(r)
		req.Date = r.PostForm.Get("date")
		req.Time = r.PostForm.Get("time")
		req.Notes = r.PostForm.Get("notes")
		req.DiscountPolicy = types.DiscountPolicy(r.PostForm.Get("discount_policy"))
		req.HMOProvider = r.PostForm.Get("hmo_provider")
		req.HMOCardNumber = r.PostForm.Get("hmo_card_number")
		req.Priority = types.Priority(r.PostForm.Get("priority"))
		if err := httputil.Validate(req); err != nil {
			return nil, err
		}
		return req, nil
	default:
		if err := httputil.DecodeJSON(r, req); err != nil {
			return nil, err
		}
		return req, nil
	}
}

// formServiceIDs reads repeated service_id fields or a comma separated service_ids
func formServiceIDs(r *http.Request) []string {
	ids := append([]string{}, r.PostForm["service_id"]...)
	for _, raw := range r.PostForm["service_ids"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func (h *Handler) listHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	filters, err := h.filtersFromQuery(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	appointments, err := h.service.ListAppointments(r.Context(), filters, actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": appointments,
		"count":        len(appointments),
	})
}

func (h *Handler) filtersFromQuery(r *http.Request) (*types.AppointmentFilters, error) {
	q := r.URL.Query()
	filters := &types.AppointmentFilters{
		PatientID: q.Get("patient_id"),
		Status:    types.AppointmentStatus(q.Get("status")),
		Limit:     httputil.QueryInt(r, "limit", 0),
		Offset:    httputil.QueryInt(r, "offset", 0),
	}
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "unknown appointment status",
			map[string]interface{}{"status": filters.Status})
	}

	if raw := q.Get("from"); raw != "" {
		from, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			return nil, types.NewValidationError(types.ErrCodeInvalidInput, "from must be YYYY-MM-DD", nil)
		}
		filters.FromDate = from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			return nil, types.NewValidationError(types.ErrCodeInvalidInput, "to must be YYYY-MM-DD", nil)
		}
		// inclusive of the whole day
		filters.ToDate = to.AddDate(0, 0, 1)
	}
	return filters, nil
}

func (h *Handler) getHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	apt, err := h.service.GetAppointment(r.Context(), mux.Vars(r)["id"], actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, apt)
}

func (h *Handler) cancelHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	var req types.CancelRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, r, h.logger, err)
			return
		}
	}

	apt, err := h.service.CancelAppointment(r.Context(), mux.Vars(r)["id"], req.Reason, actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, apt)
}

func (h *Handler) statusHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	var req types.StatusUpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	apt, err := h.service.UpdateStatus(r.Context(), mux.Vars(r)["id"], req.Status, actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, apt)
}

func (h *Handler) assignHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	var req types.AssignRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	apt, err := h.service.AssignStaff(r.Context(), mux.Vars(r)["id"], req.StaffID, actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, apt)
}

// exportHandler buffers the file so failures still render as JSON errors
func (h *Handler) exportHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	filters, err := h.filtersFromQuery(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	format := r.URL.Query().Get("format")
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), filters, format, &buf, actor); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	contentType, ext := ExportContentType(format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="appointments-%s.%s"`, time.Now().In(h.loc).Format("20060102"), ext))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) statsHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	stats, err := h.service.Stats(r.Context(), actor)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
