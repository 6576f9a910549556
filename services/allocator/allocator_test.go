package allocator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	clinicRepo "receptionist/database/repository/clinic"
	"receptionist/models"
)

func newTestRepo() *clinicRepo.MemoryClinicRepo {
	repo := clinicRepo.NewMemoryClinicRepo()
	repo.AddDoctor(models.Doctor{ID: "d1", Key: "dr-alan", Name: "Dr. Alan Smith", Specialization: "Dentist", Active: true})
	repo.AddSlot(models.AppointmentSlot{
		ID: "s1", DoctorKey: "dr-alan", Date: "2026-03-11",
		StartTime: "10:00 AM", StartMinutes: 600, Status: models.SlotAvailable,
	})
	repo.AddSlot(models.AppointmentSlot{
		ID: "s2", DoctorKey: "dr-alan", Date: "2026-03-12",
		StartTime: "2:00 PM", StartMinutes: 840, Status: models.SlotAvailable,
	})
	return repo
}

func confirmedPending(caller int) *models.PendingBooking {
	return &models.PendingBooking{
		CallID:              fmt.Sprintf("CA%d", caller),
		DoctorKey:           "dr-alan",
		Date:                "2026-03-11",
		Time:                "10:00 AM",
		PatientName:         fmt.Sprintf("Caller %d", caller),
		PatientPhone:        fmt.Sprintf("555-000-%04d", caller),
		AwaitingConfirmBook: true,
	}
}

func TestFinalizeSingleWinnerUnderContention(t *testing.T) {
	repo := newTestRepo()
	alloc := New(repo)
	ctx := context.Background()

	const claimants = 32
	var wg sync.WaitGroup
	results := make([]error, claimants)

	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, results[n] = alloc.Finalize(ctx, confirmedPending(n), fmt.Sprintf("+1555000%04d", n))
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrSlotUnavailable):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("%d claimants won the slot, want exactly 1", won)
	}
	if lost != claimants-1 {
		t.Fatalf("%d claimants lost, want %d", lost, claimants-1)
	}
}

func TestFinalizeWithoutConfirmationRefuses(t *testing.T) {
	repo := newTestRepo()
	alloc := New(repo)

	pending := confirmedPending(1)
	pending.AwaitingConfirmBook = false
	if _, err := alloc.Finalize(context.Background(), pending, "+15550001111"); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("finalize without confirmation returned %v, want ErrConfirmationRequired", err)
	}

	slot, _ := repo.FindSlot(context.Background(), models.SlotRef{DoctorKey: "dr-alan", Date: "2026-03-11", Time: "10:00 AM"})
	if slot.Status != models.SlotAvailable {
		t.Fatal("refused finalize must not touch the slot")
	}
}

func TestFinalizeLockedReturnsRecordedAppointment(t *testing.T) {
	repo := newTestRepo()
	alloc := New(repo)
	ctx := context.Background()

	pending := confirmedPending(1)
	appt, err := alloc.Finalize(ctx, pending, "+15550001111")
	if err != nil {
		t.Fatal(err)
	}
	pending.BookingLocked = true
	pending.AppointmentID = appt.ID

	again, err := alloc.Finalize(ctx, pending, "+15550001111")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != appt.ID {
		t.Fatal("locked finalize returned a different appointment")
	}
}

func TestCancelReleasesSlotForRebooking(t *testing.T) {
	repo := newTestRepo()
	alloc := New(repo)
	ctx := context.Background()

	if _, err := alloc.Finalize(ctx, confirmedPending(1), "+15550001111"); err != nil {
		t.Fatal(err)
	}
	if err := alloc.Cancel(ctx, "+15550001111"); err != nil {
		t.Fatal(err)
	}

	// The released slot is bookable by someone else.
	if _, err := alloc.Finalize(ctx, confirmedPending(2), "+15550002222"); err != nil {
		t.Fatalf("rebooking a released slot failed: %v", err)
	}

	// The cancelled caller's appointment stays cancelled.
	if err := alloc.Cancel(ctx, "+15550001111"); !errors.Is(err, ErrNoAppointment) {
		t.Fatalf("second cancel returned %v, want ErrNoAppointment", err)
	}
}

func TestRescheduleToTakenSlotHasNoPartialEffect(t *testing.T) {
	repo := newTestRepo()
	alloc := New(repo)
	ctx := context.Background()

	if _, err := alloc.Finalize(ctx, confirmedPending(1), "+15550001111"); err != nil {
		t.Fatal(err)
	}
	// Another caller takes the target slot first.
	other := confirmedPending(2)
	other.Date, other.Time = "2026-03-12", "2:00 PM"
	if _, err := alloc.Finalize(ctx, other, "+15550002222"); err != nil {
		t.Fatal(err)
	}

	ref := models.SlotRef{DoctorKey: "dr-alan", Date: "2026-03-12", Time: "2:00 PM"}
	if _, err := alloc.Reschedule(ctx, "+15550001111", ref); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("reschedule onto a taken slot returned %v, want ErrSlotUnavailable", err)
	}

	// Original appointment and slot untouched.
	appt, err := repo.ActiveAppointmentByCaller(ctx, "+15550001111")
	if err != nil {
		t.Fatal(err)
	}
	if appt.Date != "2026-03-11" || appt.Time != "10:00 AM" {
		t.Fatalf("failed reschedule moved the appointment: %+v", appt)
	}
	oldSlot, _ := repo.FindSlot(ctx, models.SlotRef{DoctorKey: "dr-alan", Date: "2026-03-11", Time: "10:00 AM"})
	if oldSlot.Status != models.SlotBooked {
		t.Fatal("failed reschedule released the original slot")
	}
}

func TestRescheduleOntoOwnSlotIsNoOp(t *testing.T) {
	repo := newTestRepo()
	alloc := New(repo)
	ctx := context.Background()

	booked, err := alloc.Finalize(ctx, confirmedPending(1), "+15550001111")
	if err != nil {
		t.Fatal(err)
	}

	ref := models.SlotRef{DoctorKey: "dr-alan", Date: "2026-03-11", Time: "10:00 AM"}
	moved, err := alloc.Reschedule(ctx, "+15550001111", ref)
	if err != nil {
		t.Fatal(err)
	}
	if moved.ID != booked.ID || moved.SlotID != booked.SlotID {
		t.Fatal("rescheduling onto the held slot should change nothing")
	}
}
