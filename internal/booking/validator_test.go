package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniemarie21/maes-laboratory-system/pkg/config"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

type slotFunc func(ctx context.Context, patientID string, at time.Time) (bool, error)

func (f slotFunc) HasActiveAppointmentAt(ctx context.Context, patientID string, at time.Time) (bool, error) {
	return f(ctx, patientID, at)
}

func freeSlots() slotFunc {
	return func(context.Context, string, time.Time) (bool, error) { return false, nil }
}

func manila(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)
	return loc
}

// Monday 13 January 2025, 08:00 in Manila
func fixedNow(loc *time.Location) func() time.Time {
	return func() time.Time { return time.Date(2025, time.January, 13, 8, 0, 0, 0, loc) }
}

func bookingConfig() config.BookingConfig {
	return config.BookingConfig{
		Timezone:              "Asia/Manila",
		MaxAdvanceDays:        30,
		EnforceOperatingHours: true,
		Hours:                 config.DefaultOperatingHours(),
	}
}

func newTestValidator(t *testing.T, slots SlotChecker) (*Validator, *time.Location) {
	loc := manila(t)
	v, err := NewValidator(slots, bookingConfig(), loc)
	require.NoError(t, err)
	v.now = fixedNow(loc)
	return v, loc
}

func TestValidator_Check(t *testing.T) {
	v, loc := newTestValidator(t, freeSlots())
	available := priced("350.00")

	tests := []struct {
		name     string
		services []*types.Service
		at       time.Time
		wantErr  error
		wantCode string
	}{
		{"tomorrow morning", available, time.Date(2025, 1, 14, 10, 0, 0, 0, loc), nil, ""},
		{"exactly now is past", available, time.Date(2025, 1, 13, 8, 0, 0, 0, loc), types.ErrPastDateTime, ""},
		{"yesterday", available, time.Date(2025, 1, 12, 10, 0, 0, 0, loc), types.ErrPastDateTime, ""},
		{"beyond horizon", available, time.Date(2025, 2, 13, 10, 0, 0, 0, loc), types.ErrValidation, types.ErrCodeBeyondHorizon},
		{"weekday before opening", available, time.Date(2025, 1, 14, 5, 30, 0, 0, loc), types.ErrValidation, types.ErrCodeOutsideOperatingHours},
		{"weekday at closing", available, time.Date(2025, 1, 14, 20, 0, 0, 0, loc), types.ErrValidation, types.ErrCodeOutsideOperatingHours},
		{"saturday afternoon", available, time.Date(2025, 1, 18, 17, 30, 0, 0, loc), nil, ""},
		{"sunday evening", available, time.Date(2025, 1, 19, 16, 30, 0, 0, loc), types.ErrValidation, types.ErrCodeOutsideOperatingHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Check(context.Background(), "patient-1", tt.services, tt.at)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantCode != "" {
				var le *types.LabError
				require.ErrorAs(t, err, &le)
				assert.Equal(t, tt.wantCode, le.Code)
			}
		})
	}
}

func TestValidator_UnavailableServiceWinsOverPastDate(t *testing.T) {
	v, loc := newTestValidator(t, freeSlots())
	services := []*types.Service{{Name: "Lipid Profile", IsAvailable: false}}

	err := v.Check(context.Background(), "patient-1", services, time.Date(2020, 1, 1, 10, 0, 0, 0, loc))

	assert.ErrorIs(t, err, types.ErrServiceUnavailable)
	var le *types.LabError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, []string{"Lipid Profile"}, le.Details["services"])
}

func TestValidator_SlotConflict(t *testing.T) {
	var gotPatient string
	v, loc := newTestValidator(t, slotFunc(func(_ context.Context, patientID string, _ time.Time) (bool, error) {
		gotPatient = patientID
		return true, nil
	}))

	err := v.Check(context.Background(), "patient-7", priced("100.00"), time.Date(2025, 1, 14, 10, 0, 0, 0, loc))
	assert.ErrorIs(t, err, types.ErrSlotConflict)
	assert.Equal(t, "patient-7", gotPatient)
}

func TestValidator_HoursDisabled(t *testing.T) {
	loc := manila(t)
	cfg := bookingConfig()
	cfg.EnforceOperatingHours = false
	v, err := NewValidator(freeSlots(), cfg, loc)
	require.NoError(t, err)
	v.now = fixedNow(loc)

	assert.NoError(t, v.Check(context.Background(), "p", priced("1.00"), time.Date(2025, 1, 14, 23, 0, 0, 0, loc)))
}

func TestNewValidator_RejectsBadHours(t *testing.T) {
	cfg := bookingConfig()
	cfg.Hours = map[string]config.HoursConfig{"funday": {Open: "08:00", Close: "17:00"}}
	_, err := NewValidator(freeSlots(), cfg, time.UTC)
	assert.Error(t, err)

	cfg.Hours = map[string]config.HoursConfig{"monday": {Open: "17:00", Close: "08:00"}}
	_, err = NewValidator(freeSlots(), cfg, time.UTC)
	assert.Error(t, err)
}

func TestScheduledAt(t *testing.T) {
	loc := manila(t)

	at, err := ScheduledAt("2025-01-14", "10:00", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 14, 2, 0, 0, 0, time.UTC), at.UTC())

	_, err = ScheduledAt("2025-13-01", "10:00", loc)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestValidTransition(t *testing.T) {
	assert.True(t, ValidTransition(types.StatusPending, types.StatusConfirmed))
	assert.True(t, ValidTransition(types.StatusConfirmed, types.StatusInProgress))
	assert.True(t, ValidTransition(types.StatusInProgress, types.StatusCompleted))
	assert.True(t, ValidTransition(types.StatusConfirmed, types.StatusCancelled))
	assert.True(t, ValidTransition(types.StatusPending, types.StatusNoShow))

	assert.False(t, ValidTransition(types.StatusPending, types.StatusCompleted))
	assert.False(t, ValidTransition(types.StatusInProgress, types.StatusCancelled))
	assert.False(t, ValidTransition(types.StatusCompleted, types.StatusPending))
	assert.False(t, ValidTransition(types.StatusCancelled, types.StatusConfirmed))
}
