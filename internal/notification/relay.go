// Package notification turns committed domain events into in-app
// notifications and serves them back to their owners.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aniemarie21/maes-laboratory-system/internal/events"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

const dateTimeLayout = "January 02, 2006 at 03:04 PM"

// Relay is the events.Handler that writes notification rows
type Relay struct {
	repository interfaces.NotificationRepository
	loc        *time.Location
	now        func() time.Time
}

// NewRelay creates the notification event handler; times are shown in loc
func NewRelay(repo interfaces.NotificationRepository, loc *time.Location) *Relay {
	return &Relay{repository: repo, loc: loc, now: time.Now}
}

// Name implements events.Handler
func (r *Relay) Name() string { return "notification" }

// Handle implements events.Handler. Events that concern no patient are ignored.
func (r *Relay) Handle(ctx context.Context, e events.Event) error {
	n := r.build(e)
	if n == nil || n.UserID == "" {
		return nil
	}
	n.ID = uuid.New().String()
	n.CreatedAt = r.now()
	return r.repository.CreateNotification(ctx, n)
}

func (r *Relay) build(e events.Event) *types.Notification {
	switch ev := e.(type) {
	case events.AppointmentBooked:
		apt := ev.Appointment
		return &types.Notification{
			UserID:        apt.PatientID,
			Type:          types.NotificationAppointmentBooked,
			Title:         "Appointment Booked Successfully",
			Message:       fmt.Sprintf("Your appointment for %s has been scheduled for %s.", serviceNames(apt), apt.ScheduledAt.In(r.loc).Format(dateTimeLayout)),
			AppointmentID: apt.ID,
		}

	case events.AppointmentStatusChanged:
		apt := ev.Appointment
		return &types.Notification{
			UserID:        apt.PatientID,
			Type:          types.NotificationAppointmentStatus,
			Title:         statusTitle(apt.Status),
			Message:       fmt.Sprintf("Your appointment %s is now %s.", apt.Reference, statusText(apt.Status)),
			AppointmentID: apt.ID,
		}

	case events.AppointmentCancelled:
		apt := ev.Appointment
		msg := fmt.Sprintf("Your appointment %s on %s has been cancelled.", apt.Reference, apt.ScheduledAt.In(r.loc).Format(dateTimeLayout))
		if apt.CancellationReason != "" {
			msg += " Reason: " + apt.CancellationReason
		}
		return &types.Notification{
			UserID:        apt.PatientID,
			Type:          types.NotificationAppointmentCancelled,
			Title:         "Appointment Cancelled",
			Message:       msg,
			AppointmentID: apt.ID,
		}

	case events.PaymentRecorded:
		return &types.Notification{
			UserID:        ev.PatientID,
			Type:          types.NotificationPaymentRecorded,
			Title:         "Payment Received",
			Message:       fmt.Sprintf("Your payment of PHP %s (receipt %s) has been received and is awaiting verification.", ev.Payment.Amount.StringFixed(2), ev.Payment.ReceiptNumber),
			AppointmentID: ev.Payment.AppointmentID,
			PaymentID:     ev.Payment.ID,
		}

	case events.PaymentVerified:
		return &types.Notification{
			UserID:        ev.PatientID,
			Type:          types.NotificationPaymentVerified,
			Title:         "Payment Verified",
			Message:       fmt.Sprintf("Your payment of PHP %s (receipt %s) has been verified.", ev.Payment.Amount.StringFixed(2), ev.Payment.ReceiptNumber),
			AppointmentID: ev.Payment.AppointmentID,
			PaymentID:     ev.Payment.ID,
		}

	case events.ResultAdvanced:
		if !ev.Released() {
			return nil
		}
		return &types.Notification{
			UserID:        ev.Result.PatientID,
			Type:          types.NotificationResultReleased,
			Title:         "Test Results Ready",
			Message:       "Your test results are now available.",
			AppointmentID: ev.Result.AppointmentID,
		}
	}
	return nil
}

func serviceNames(apt *types.Appointment) string {
	names := make([]string, 0, len(apt.Services))
	for _, s := range apt.Services {
		names = append(names, s.ServiceName)
	}
	if len(names) == 0 {
		return "your laboratory tests"
	}
	return strings.Join(names, ", ")
}

func statusTitle(s types.AppointmentStatus) string {
	switch s {
	case types.StatusConfirmed:
		return "Appointment Confirmed"
	case types.StatusInProgress:
		return "Appointment In Progress"
	case types.StatusCompleted:
		return "Appointment Completed"
	case types.StatusNoShow:
		return "Appointment Missed"
	default:
		return "Appointment Updated"
	}
}

func statusText(s types.AppointmentStatus) string {
	switch s {
	case types.StatusInProgress:
		return "in progress"
	case types.StatusNoShow:
		return "marked as no-show"
	default:
		return string(s)
	}
}
