package schedule

import (
	"clinic-booking/internal/timerange"
	"time"

	"github.com/google/uuid"
)

// Sweep flips every appointment whose end instant is strictly before now and
// whose status is still active to completed, mutating the snapshot in place,
// and returns the identifiers it flipped. Re-running with the same now is a
// no-op, so callers may invoke it opportunistically or from a periodic job.
func Sweep(now time.Time, appointments []*Appointment) ([]uuid.UUID, error) {
	swept := make([]uuid.UUID, 0)
	for _, appointment := range appointments {
		if appointment.Status.Terminal() {
			continue
		}
		end, err := timerange.ToMinutes(appointment.EndTime)
		if err != nil {
			return nil, err
		}
		endInstant := timerange.CombineDayTime(appointment.Date, end)
		if !endInstant.Before(now) {
			continue
		}
		appointment.Status = StatusCompleted
		swept = append(swept, appointment.UUID)
	}
	return swept, nil
}
