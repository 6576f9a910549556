package clinicRepo

import (
	"context"
	"errors"

	"receptionist/models"
)

// ErrNotFound is returned when a doctor, slot or appointment does not exist.
var ErrNotFound = errors.New("clinic: not found")

// Repository is the persistence boundary for doctors, slots and appointments.
//
// ClaimSlot and ReleaseSlot are conditional single-slot state transitions:
// ClaimSlot succeeds only if the slot is currently AVAILABLE, ReleaseSlot only
// if it is currently BOOKED. Callers that need multi-step atomicity (claim +
// appointment write) serialize through the allocator's per-slot holds; the
// conditional updates are the backstop that keeps two processes from both
// claiming one slot.
type Repository interface {
	GetActiveDoctors(ctx context.Context) ([]models.Doctor, error)
	GetDoctorByKey(ctx context.Context, key string) (*models.Doctor, error)

	// AvailableSlotsByDoctor returns AVAILABLE slots for the doctor within
	// [fromDate, toDate], ordered by date then start time.
	AvailableSlotsByDoctor(ctx context.Context, doctorKey, fromDate, toDate string) ([]models.AppointmentSlot, error)
	// FindSlot looks a slot up by its natural key, regardless of status.
	FindSlot(ctx context.Context, ref models.SlotRef) (*models.AppointmentSlot, error)

	// ClaimSlot transitions AVAILABLE -> BOOKED. Returns false when the slot
	// was not AVAILABLE (already claimed, or missing).
	ClaimSlot(ctx context.Context, slotID string) (bool, error)
	// ReleaseSlot transitions BOOKED -> AVAILABLE.
	ReleaseSlot(ctx context.Context, slotID string) error

	InsertAppointment(ctx context.Context, appt *models.Appointment) error
	UpdateAppointmentStatus(ctx context.Context, apptID, status string) error
	// MoveAppointment repoints a confirmed appointment at a new doctor/slot.
	MoveAppointment(ctx context.Context, apptID, doctorKey string, slot models.AppointmentSlot) error
	GetAppointment(ctx context.Context, apptID string) (*models.Appointment, error)
	// ActiveAppointmentByCaller returns the most recent CONFIRMED appointment
	// for the telephony caller id, or ErrNotFound.
	ActiveAppointmentByCaller(ctx context.Context, callerPhone string) (*models.Appointment, error)
}
