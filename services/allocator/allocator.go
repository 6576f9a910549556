package allocator

import (
	"context"
	"errors"
	"fmt"
	"time"

	clinicRepo "receptionist/database/repository/clinic"
	"receptionist/models"
	"receptionist/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrSlotUnavailable means the requested slot is not AVAILABLE. Callers
	// report it to the caller as an outcome, never as a hard failure.
	ErrSlotUnavailable = errors.New("allocator: slot unavailable")
	// ErrNoAppointment means no CONFIRMED appointment exists for the caller.
	ErrNoAppointment = errors.New("allocator: no active appointment")
	// ErrConfirmationRequired is a programming-contract violation: Finalize
	// was invoked without a preceding confirmation.
	ErrConfirmationRequired = errors.New("allocator: finalize without confirmation")
)

// Allocator owns all slot and appointment state transitions. Slot rows are
// shared across every call; nothing outside this package mutates them.
type Allocator struct {
	repo  clinicRepo.Repository
	locks *slotLocks
}

func New(repo clinicRepo.Repository) *Allocator {
	return &Allocator{repo: repo, locks: newSlotLocks()}
}

// TryReserve checks that the slot exists and is AVAILABLE right now. It makes
// no state change; the flow engine uses it as the pre-check before asking the
// caller to confirm.
func (a *Allocator) TryReserve(ctx context.Context, ref models.SlotRef) (*models.AppointmentSlot, error) {
	slot, err := a.repo.FindSlot(ctx, ref)
	if err != nil {
		if errors.Is(err, clinicRepo.ErrNotFound) {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}
	if slot.Status != models.SlotAvailable {
		return nil, ErrSlotUnavailable
	}
	return slot, nil
}

// Finalize books the pending slot and records the appointment. Exactly one of
// any number of concurrent claimants of the same slot succeeds; the rest get
// ErrSlotUnavailable. When the pending record is already locked, the recorded
// appointment is returned without touching the slot again.
func (a *Allocator) Finalize(ctx context.Context, pending *models.PendingBooking, callerPhone string) (*models.Appointment, error) {
	if pending.BookingLocked {
		return a.repo.GetAppointment(ctx, pending.AppointmentID)
	}
	if !pending.AwaitingConfirmBook {
		utils.GetLogger().Error("finalize invoked without pending confirmation",
			zap.String("caller", callerPhone))
		return nil, ErrConfirmationRequired
	}

	ref := models.SlotRef{DoctorKey: pending.DoctorKey, Date: pending.Date, Time: pending.Time}
	slot, err := a.repo.FindSlot(ctx, ref)
	if err != nil {
		if errors.Is(err, clinicRepo.ErrNotFound) {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}

	lock := a.locks.get(slot.ID)
	lock.Lock()
	defer lock.Unlock()

	claimed, err := a.repo.ClaimSlot(ctx, slot.ID)
	if err != nil {
		return nil, fmt.Errorf("claim failed: %w", err)
	}
	if !claimed {
		return nil, ErrSlotUnavailable
	}

	appt := &models.Appointment{
		ID:           uuid.New().String(),
		CallerPhone:  callerPhone,
		PatientName:  pending.PatientName,
		PatientPhone: pending.PatientPhone,
		DoctorKey:    pending.DoctorKey,
		SlotID:       slot.ID,
		Date:         slot.Date,
		Time:         slot.StartTime,
		Status:       models.AppointmentConfirmed,
		CreatedAt:    time.Now(),
	}
	if err := a.repo.InsertAppointment(ctx, appt); err != nil {
		// Undo the claim so the slot is not stranded in BOOKED.
		if relErr := a.repo.ReleaseSlot(ctx, slot.ID); relErr != nil {
			utils.GetLogger().Error("failed to release slot after insert failure",
				zap.String("slotId", slot.ID), zap.Error(relErr))
		}
		return nil, fmt.Errorf("record appointment failed: %w", err)
	}

	utils.GetLogger().Info("appointment booked",
		zap.String("doctor", appt.DoctorKey),
		zap.String("date", appt.Date),
		zap.String("time", appt.Time))
	return appt, nil
}

// Cancel marks the caller's active appointment CANCELLED and returns its slot
// to AVAILABLE as one unit under the slot's hold.
func (a *Allocator) Cancel(ctx context.Context, callerPhone string) error {
	appt, err := a.repo.ActiveAppointmentByCaller(ctx, callerPhone)
	if err != nil {
		if errors.Is(err, clinicRepo.ErrNotFound) {
			return ErrNoAppointment
		}
		return err
	}

	lock := a.locks.get(appt.SlotID)
	lock.Lock()
	defer lock.Unlock()

	if err := a.repo.UpdateAppointmentStatus(ctx, appt.ID, models.AppointmentCancelled); err != nil {
		return fmt.Errorf("cancel appointment failed: %w", err)
	}
	if err := a.repo.ReleaseSlot(ctx, appt.SlotID); err != nil {
		return fmt.Errorf("release slot failed: %w", err)
	}

	utils.GetLogger().Info("appointment cancelled", zap.String("appointmentId", appt.ID))
	return nil
}

// Reschedule moves the caller's active appointment to a new doctor/date/time.
// Both slots are held for the duration; if the new slot cannot be claimed the
// operation aborts with no partial effect.
func (a *Allocator) Reschedule(ctx context.Context, callerPhone string, ref models.SlotRef) (*models.Appointment, error) {
	appt, err := a.repo.ActiveAppointmentByCaller(ctx, callerPhone)
	if err != nil {
		if errors.Is(err, clinicRepo.ErrNotFound) {
			return nil, ErrNoAppointment
		}
		return nil, err
	}

	newSlot, err := a.repo.FindSlot(ctx, ref)
	if err != nil {
		if errors.Is(err, clinicRepo.ErrNotFound) {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}
	if newSlot.ID == appt.SlotID {
		// Rescheduling onto the slot already held: nothing to move.
		return appt, nil
	}

	unlock := a.locks.lockBoth(appt.SlotID, newSlot.ID)
	defer unlock()

	claimed, err := a.repo.ClaimSlot(ctx, newSlot.ID)
	if err != nil {
		return nil, fmt.Errorf("claim new slot failed: %w", err)
	}
	if !claimed {
		return nil, ErrSlotUnavailable
	}

	if err := a.repo.MoveAppointment(ctx, appt.ID, ref.DoctorKey, *newSlot); err != nil {
		if relErr := a.repo.ReleaseSlot(ctx, newSlot.ID); relErr != nil {
			utils.GetLogger().Error("failed to roll back claim after move failure",
				zap.String("slotId", newSlot.ID), zap.Error(relErr))
		}
		return nil, fmt.Errorf("move appointment failed: %w", err)
	}
	if err := a.repo.ReleaseSlot(ctx, appt.SlotID); err != nil {
		return nil, fmt.Errorf("release old slot failed: %w", err)
	}

	moved, err := a.repo.GetAppointment(ctx, appt.ID)
	if err != nil {
		return nil, err
	}
	utils.GetLogger().Info("appointment rescheduled",
		zap.String("appointmentId", moved.ID),
		zap.String("doctor", moved.DoctorKey),
		zap.String("date", moved.Date),
		zap.String("time", moved.Time))
	return moved, nil
}
