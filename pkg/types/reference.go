package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	AppointmentReferencePrefix = "APT"
	ReceiptNumberPrefix        = "RCP"
)

// NewReference builds a human-facing number such as APT20250114-3F9A1C from
// the local calendar date of at and six hex digits of a random UUID.
func NewReference(prefix string, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return prefix + at.Format("20060102") + "-" + suffix
}
