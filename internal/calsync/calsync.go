// Package calsync mirrors accepted calendar changes to an external calendar
// provider. The engine triggers it only after a booking was committed; its
// failures never roll a booking back.
package calsync

import (
	"clinic-booking/internal/logging"
	"clinic-booking/internal/schedule"
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// logSyncer records the sync request on the system log. It stands in for a
// real provider integration, which only needs to honor the same contract.
type logSyncer struct {
	logger *log.Logger
}

// NewLogSyncer creates a Syncer that only logs the operations it receives.
func NewLogSyncer(logger *log.Logger) schedule.Syncer {
	return &logSyncer{logger: logger}
}

func (s *logSyncer) Sync(ctx context.Context, appointment schedule.Appointment, op schedule.SyncOp) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	externalEventID := uuid.NewString()
	logging.PrintlnInfo(s.logger, fmt.Sprintf("calendar sync %s for appointment %s on %s %s-%s (event %s)",
		op, appointment.UUID, appointment.Date.Format("2006-01-02"), appointment.StartTime, appointment.EndTime, externalEventID))
	return externalEventID, nil
}
