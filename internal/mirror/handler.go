package mirror

import (
	"context"

	"github.com/aniemarie21/maes-laboratory-system/internal/events"
)

// Mirrored collections
const (
	CollectionAppointments = "appointments"
	CollectionPayments     = "payments"
	CollectionTestResults  = "test_results"
	CollectionUsers        = "users"
)

// Handler is the events.Handler that queues changed records for mirroring
type Handler struct {
	outbox *Outbox
}

// NewHandler creates the mirror event handler
func NewHandler(outbox *Outbox) *Handler {
	return &Handler{outbox: outbox}
}

// Name implements events.Handler
func (h *Handler) Name() string { return "mirror" }

// Handle implements events.Handler. It only enqueues, so it never fails.
func (h *Handler) Handle(_ context.Context, e events.Event) error {
	switch ev := e.(type) {
	case events.AppointmentBooked:
		h.outbox.Enqueue(CollectionAppointments, ev.Appointment.ID, ev.Appointment)
	case events.AppointmentStatusChanged:
		h.outbox.Enqueue(CollectionAppointments, ev.Appointment.ID, ev.Appointment)
	case events.AppointmentCancelled:
		h.outbox.Enqueue(CollectionAppointments, ev.Appointment.ID, ev.Appointment)
	case events.AppointmentAssigned:
		h.outbox.Enqueue(CollectionAppointments, ev.Appointment.ID, ev.Appointment)
	case events.PaymentRecorded:
		h.outbox.Enqueue(CollectionPayments, ev.Payment.ID, ev.Payment)
	case events.PaymentVerified:
		h.outbox.Enqueue(CollectionPayments, ev.Payment.ID, ev.Payment)
	case events.ResultCreated:
		h.outbox.Enqueue(CollectionTestResults, ev.Result.ID, ev.Result)
	case events.ResultUpdated:
		h.outbox.Enqueue(CollectionTestResults, ev.Result.ID, ev.Result)
	case events.ResultAdvanced:
		h.outbox.Enqueue(CollectionTestResults, ev.Result.ID, ev.Result)
	case events.ProfileUpdated:
		h.outbox.Enqueue(CollectionUsers, ev.Profile.UserID, ev.Profile)
	}
	return nil
}
