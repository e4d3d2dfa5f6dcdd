// Package audit keeps an append-only log of who changed what, fed by the
// domain event dispatcher.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aniemarie21/maes-laboratory-system/internal/events"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// systemActor is recorded when an event carries no actor
const systemActor = "system"

// Recorder is the events.Handler that writes one audit row per event
type Recorder struct {
	repository interfaces.AuditRepository
	now        func() time.Time
}

// NewRecorder creates the audit event handler
func NewRecorder(repo interfaces.AuditRepository) *Recorder {
	return &Recorder{repository: repo, now: time.Now}
}

// Name implements events.Handler
func (r *Recorder) Name() string { return "audit" }

// Handle implements events.Handler
func (r *Recorder) Handle(ctx context.Context, e events.Event) error {
	entry, changes := entryFor(e)
	if entry == nil {
		return nil
	}

	if changes != nil {
		raw, err := json.Marshal(changes)
		if err != nil {
			return fmt.Errorf("failed to encode audit changes for %s: %w", e.EventName(), err)
		}
		entry.Changes = raw
	}
	if entry.ActorID == "" {
		entry.ActorID = systemActor
	}
	entry.ID = uuid.New().String()
	entry.CreatedAt = r.now()

	return r.repository.CreateEntry(ctx, entry)
}

func entryFor(e events.Event) (*types.AuditEntry, interface{}) {
	switch ev := e.(type) {
	case events.AppointmentBooked:
		return &types.AuditEntry{ActorID: ev.ActorID, Action: types.AuditCreate, Entity: "appointment", EntityID: ev.Appointment.ID},
			map[string]interface{}{
				"reference":    ev.Appointment.Reference,
				"patient_id":   ev.Appointment.PatientID,
				"scheduled_at": ev.Appointment.ScheduledAt,
				"final_amount": ev.Appointment.FinalAmount.StringFixed(2),
			}
	case events.AppointmentStatusChanged:
		return &types.AuditEntry{ActorID: ev.ActorID, Action: types.AuditUpdate, Entity: "appointment", EntityID: ev.Appointment.ID},
			map[string]interface{}{"from": ev.From, "to": ev.Appointment.Status}
	case events.AppointmentCancelled:
		return &types.AuditEntry{ActorID: ev.ActorID, Action: types.AuditUpdate, Entity: "appointment", EntityID: ev.Appointment.ID},
			map[string]interface{}{"status": ev.Appointment.Status, "reason": ev.Appointment.CancellationReason}
	case events.AppointmentAssigned:
		return &types.AuditEntry{ActorID: ev.ActorID, Action: types.AuditUpdate, Entity: "appointment", EntityID: ev.Appointment.ID},
			map[string]interface{}{"assigned_staff_id": ev.Appointment.AssignedStaffID}
	case events.AppointmentsExported:
		return &types.AuditEntry{ActorID: ev.ActorID, Action: types.AuditExport, Entity: "appointment"},
			map[string]interface{}{"format": ev.Format, "count": ev.Count}
	case events.PaymentRecorded:
		return &types.AuditEntry{ActorID: ev.ActorID, Action: types.AuditCreate, Entity: "payment", EntityID: ev.Payment.ID},
			map[string]interface{}{
				"appointment_id": ev.Payment.AppointmentID,
				"amount":         ev.Payment.Amount.StringFixed(2),
				"method":         ev.Payment.Method,
			}
	case events.PaymentVerified:
		return &types.AuditEntry{ActorID: ev.ActorID, Action: types.AuditUpdate, Entity: "payment", EntityID: ev.Payment.ID},
			map[string]interface{}{"is_verified": true}
	case events.ResultCreated:
		return &types.AuditEntry{ActorID: ev.ActorID, Action: types.AuditCreate, Entity: "test_result", EntityID: ev.Result.ID},
			map[string]interface{}{"appointment_id": ev.Result.AppointmentID}
	case events.ResultUpdated:
		return &types.AuditEntry{ActorID: ev.ActorID, Action: types.AuditUpdate, Entity: "test_result", EntityID: ev.Result.ID},
			map[string]interface{}{"content": "updated"}
	case events.ResultAdvanced:
		return &types.AuditEntry{ActorID: ev.ActorID, Action: types.AuditUpdate, Entity: "test_result", EntityID: ev.Result.ID},
			map[string]interface{}{"from": ev.From, "to": ev.Result.Status}
	case events.CatalogChanged:
		return &types.AuditEntry{ActorID: ev.ActorID, Action: ev.Action, Entity: ev.Entity, EntityID: ev.EntityID}, ev.Changes
	case events.SettingChanged:
		return &types.AuditEntry{ActorID: ev.ActorID, Action: types.AuditUpdate, Entity: "setting", EntityID: ev.Setting.Key},
			map[string]interface{}{"value": ev.Setting.Value}
	case events.ProfileUpdated:
		return &types.AuditEntry{ActorID: ev.ActorID, Action: types.AuditUpdate, Entity: "profile", EntityID: ev.Profile.UserID}, nil
	}
	return nil, nil
}
