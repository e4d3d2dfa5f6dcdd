package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aniemarie21/maes-laboratory-system/pkg/config"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// SlotChecker reports whether a patient already holds an active appointment
type SlotChecker interface {
	HasActiveAppointmentAt(ctx context.Context, patientID string, at time.Time) (bool, error)
}

// openHours is a daily window in minutes after local midnight, closed at end
type openHours struct {
	open, close int
}

func (h openHours) contains(minute int) bool {
	return minute >= h.open && minute < h.close
}

// Validator applies the booking rules that depend on the services, the clock
// and existing appointments. Each failure carries its own error type.
type Validator struct {
	slots          SlotChecker
	loc            *time.Location
	maxAdvanceDays int
	enforceHours   bool
	hours          map[time.Weekday]openHours
	now            func() time.Time
}

// NewValidator builds a validator from the booking configuration
func NewValidator(slots SlotChecker, cfg config.BookingConfig, loc *time.Location) (*Validator, error) {
	hours := make(map[time.Weekday]openHours, len(cfg.Hours))
	for day, window := range cfg.Hours {
		weekday, ok := weekdays[strings.ToLower(day)]
		if !ok {
			return nil, fmt.Errorf("unknown weekday in booking hours: %q", day)
		}
		open, err := parseClock(window.Open)
		if err != nil {
			return nil, fmt.Errorf("invalid %s open time: %w", day, err)
		}
		closing, err := parseClock(window.Close)
		if err != nil {
			return nil, fmt.Errorf("invalid %s close time: %w", day, err)
		}
		if closing <= open {
			return nil, fmt.Errorf("%s closes before it opens", day)
		}
		hours[weekday] = openHours{open: open, close: closing}
	}

	return &Validator{
		slots:          slots,
		loc:            loc,
		maxAdvanceDays: cfg.MaxAdvanceDays,
		enforceHours:   cfg.EnforceOperatingHours,
		hours:          hours,
		now:            time.Now,
	}, nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Check runs, in order: service availability, past timestamp, booking
// window and the patient's slot.
func (v *Validator) Check(ctx context.Context, patientID string, services []*types.Service, at time.Time) error {
	var unavailable []string
	for _, svc := range services {
		if !svc.IsAvailable {
			unavailable = append(unavailable, svc.Name)
		}
	}
	if len(unavailable) > 0 {
		return types.NewServiceUnavailableError(unavailable)
	}

	now := v.now()
	if !at.After(now) {
		return types.NewPastDateTimeError()
	}

	if err := v.checkWindow(at, now); err != nil {
		return err
	}

	taken, err := v.slots.HasActiveAppointmentAt(ctx, patientID, at)
	if err != nil {
		return fmt.Errorf("failed to check appointment slot: %w", err)
	}
	if taken {
		return types.NewSlotConflictError(nil)
	}
	return nil
}

func (v *Validator) checkWindow(at, now time.Time) error {
	if v.maxAdvanceDays > 0 && at.After(now.AddDate(0, 0, v.maxAdvanceDays)) {
		return types.NewValidationError(types.ErrCodeBeyondHorizon,
			fmt.Sprintf("appointments can be booked at most %d days ahead", v.maxAdvanceDays),
			map[string]interface{}{"max_advance_days": v.maxAdvanceDays})
	}

	if !v.enforceHours {
		return nil
	}
	local := at.In(v.loc)
	window, open := v.hours[local.Weekday()]
	if !open || !window.contains(local.Hour()*60+local.Minute()) {
		return types.NewValidationError(types.ErrCodeOutsideOperatingHours,
			"the laboratory is closed at the selected time",
			map[string]interface{}{"weekday": strings.ToLower(local.Weekday().String()), "time": local.Format("15:04")})
	}
	return nil
}

// ScheduledAt combines a YYYY-MM-DD date and HH:MM time in loc
func ScheduledAt(date, clock string, loc *time.Location) (time.Time, error) {
	at, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, types.NewValidationError(types.ErrCodeInvalidInput, "invalid appointment date or time", map[string]interface{}{
			"date": date,
			"time": clock,
		})
	}
	return at, nil
}
