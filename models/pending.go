package models

// PendingBooking accumulates in-progress booking, cancel or reschedule facts
// for one call. It is keyed by call id and lives independently of the media
// stream session, so it survives a reconnect of the same call.
//
// At most one of the three confirm flags may be set at a time.
type PendingBooking struct {
	CallID    string
	DoctorKey string
	Date      string // "YYYY-MM-DD"
	Time      string // "H:MM AM/PM"

	PatientName  string
	PatientPhone string

	// Last slot spoken to the caller, for accept-by-reference ("yes, that
	// works") and name/phone-after-suggestion flows.
	LastSuggestedDoctorKey string
	LastSuggestedDate      string
	LastSuggestedTime      string

	AwaitingNamePhone         bool
	AwaitingConfirmBook       bool
	AwaitingConfirmCancel     bool
	AwaitingConfirmReschedule bool

	// BookingLocked guards against double finalization: once set, a repeated
	// confirmation returns the recorded result without touching the allocator.
	BookingLocked    bool
	BookingCompleted bool
	AppointmentID    string // set when BookingLocked

	// Reschedule target, kept separate from the booking fields so an aborted
	// reschedule leaves an existing appointment untouched.
	RescheduleDoctorKey string
	RescheduleDate      string
	RescheduleTime      string
}

// HasAnyPending reports whether any stage of a transaction is in progress.
func (p *PendingBooking) HasAnyPending() bool {
	return p.AwaitingNamePhone || p.AwaitingConfirmBook ||
		p.AwaitingConfirmCancel || p.AwaitingConfirmReschedule
}

// ClearConfirmFlags resets the three mutually exclusive confirmation gates.
func (p *PendingBooking) ClearConfirmFlags() {
	p.AwaitingConfirmBook = false
	p.AwaitingConfirmCancel = false
	p.AwaitingConfirmReschedule = false
}
