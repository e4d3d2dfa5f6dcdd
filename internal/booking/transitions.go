package booking

import "github.com/aniemarie21/maes-laboratory-system/pkg/types"

// transitionMap lists, per target status, the statuses it may be reached from
var transitionMap = map[types.AppointmentStatus][]types.AppointmentStatus{
	types.StatusConfirmed:  {types.StatusPending},
	types.StatusInProgress: {types.StatusConfirmed},
	types.StatusCompleted:  {types.StatusInProgress},
	types.StatusCancelled:  {types.StatusPending, types.StatusConfirmed},
	types.StatusNoShow:     {types.StatusPending, types.StatusConfirmed},
}

// ValidTransition reports whether an appointment in status from may move to status to
func ValidTransition(from, to types.AppointmentStatus) bool {
	allowed, ok := transitionMap[to]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == from {
			return true
		}
	}
	return false
}

func invalidTransition(from, to types.AppointmentStatus) error {
	return types.NewConflictError(types.ErrCodeInvalidTransition,
		"appointment cannot move from "+string(from)+" to "+string(to),
		map[string]interface{}{"from": from, "to": to})
}
