package schedule

type Error string

const (
	ErrProfessionalNotFound    = "professional not found"
	ErrAppointmentNotFound     = "appointment not found"
	ErrBlockedSlotNotFound     = "blocked slot not found"
	ErrInvalidIdentifier       = "invalid identifier"
	ErrInvalidDateReference    = "invalid date reference"
	ErrCalendarBusy            = "calendar is busy, try again"
	ErrTerminalStatus          = "appointment is in a terminal status"
	ErrOnlyOwnerCanManageSlots = "only the calendar owner can manage blocked slots"
)

func (e Error) Error() string {
	return string(e)
}
