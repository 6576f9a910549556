package flow

import (
	"context"
	"testing"
	"time"

	clinicRepo "receptionist/database/repository/clinic"
	"receptionist/models"
	"receptionist/services/allocator"
)

// fakeExtractor returns canned facts so engine tests never touch a model.
type fakeExtractor struct {
	facts models.ExtractedFacts
}

func (f *fakeExtractor) Extract(ctx context.Context, userText string, summary []string, doctors []models.Doctor) (models.ExtractedFacts, error) {
	return f.facts, nil
}

func noFacts() models.ExtractedFacts { return models.ExtractedFacts{Intent: "none"} }

func newTestEngine(t *testing.T) (*Engine, *clinicRepo.MemoryClinicRepo, *fakeExtractor) {
	t.Helper()
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

	ext := &fakeExtractor{facts: noFacts()}
	e := NewEngine(repo, allocator.New(repo), ext)
	e.now = func() time.Time { return testNow }
	return e, repo, ext
}

func TestFullBookingHappyPath(t *testing.T) {
	e, repo, ext := newTestEngine(t)
	ctx := context.Background()

	ext.facts = models.ExtractedFacts{
		Intent: "book", DoctorKey: "dr-alan", Date: "tomorrow", Time: "10 AM",
		PatientName: "Jane Doe", PatientPhone: "555-123-4567",
	}
	out := e.Process(ctx, "CA1", "+15550001111", "book doctor alan tomorrow at 10 AM, my name is Jane Doe, phone 555-123-4567", nil, "")
	if out.Kind != models.OutcomeConfirmBooking {
		t.Fatalf("fully specified request should ask for confirmation, got %v", out.Kind)
	}
	if out.Date != "2026-03-11" || out.Time != "10:00 AM" {
		t.Fatalf("confirm outcome carries %s %s, want 2026-03-11 10:00 AM", out.Date, out.Time)
	}

	ext.facts = noFacts()
	out = e.Process(ctx, "CA1", "+15550001111", "yes", nil, "")
	if out.Kind != models.OutcomeConfirmed {
		t.Fatalf("yes at the gate should book, got %v", out.Kind)
	}

	slot, err := repo.FindSlot(ctx, models.SlotRef{DoctorKey: "dr-alan", Date: "2026-03-11", Time: "10:00 AM"})
	if err != nil {
		t.Fatal(err)
	}
	if slot.Status != models.SlotBooked {
		t.Fatalf("slot status = %s, want BOOKED", slot.Status)
	}

	appt, err := repo.ActiveAppointmentByCaller(ctx, "+15550001111")
	if err != nil {
		t.Fatal(err)
	}
	if appt.PatientName != "Jane Doe" || appt.SlotID != "s1" {
		t.Fatalf("unexpected appointment %+v", appt)
	}

	// A repeated yes must not allocate twice.
	out = e.Process(ctx, "CA1", "+15550001111", "yes", nil, "")
	if out.Kind != models.OutcomeConfirmed {
		t.Fatalf("repeated confirmation should restate, got %v", out.Kind)
	}
	again, err := repo.ActiveAppointmentByCaller(ctx, "+15550001111")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != appt.ID {
		t.Fatal("repeated confirmation created a second appointment")
	}
}

func TestDeclineAtConfirmClearsGate(t *testing.T) {
	e, repo, ext := newTestEngine(t)
	ctx := context.Background()

	ext.facts = models.ExtractedFacts{
		Intent: "book", DoctorKey: "dr-alan", Date: "2026-03-11", Time: "10:00 AM",
		PatientName: "Jane", PatientPhone: "555-123-4567",
	}
	if out := e.Process(ctx, "CA2", "+15550002222", "book it", nil, ""); out.Kind != models.OutcomeConfirmBooking {
		t.Fatalf("setup failed, got %v", out.Kind)
	}

	ext.facts = noFacts()
	out := e.Process(ctx, "CA2", "+15550002222", "no", nil, "")
	if out.Kind != models.OutcomeMessage || out.MessageKey != models.MsgDifferentTime {
		t.Fatalf("decline should offer a different time, got %v/%s", out.Kind, out.MessageKey)
	}

	slot, _ := repo.FindSlot(ctx, models.SlotRef{DoctorKey: "dr-alan", Date: "2026-03-11", Time: "10:00 AM"})
	if slot.Status != models.SlotAvailable {
		t.Fatal("declined booking must leave the slot AVAILABLE")
	}
}

func TestAbortClearsPendingState(t *testing.T) {
	e, _, ext := newTestEngine(t)
	ctx := context.Background()

	ext.facts = models.ExtractedFacts{Intent: "book", DoctorKey: "dr-alan", Date: "2026-03-11", Time: "10:00 AM"}
	if out := e.Process(ctx, "CA3", "+15550003333", "book me in with alan", nil, ""); out.Kind != models.OutcomeAskNamePhone {
		t.Fatalf("partial request should ask for name and phone, got %v", out.Kind)
	}

	ext.facts = noFacts()
	out := e.Process(ctx, "CA3", "+15550003333", "actually never mind", nil, "")
	if out.Kind != models.OutcomeAbortBooking {
		t.Fatalf("abort phrase should abandon the transaction, got %v", out.Kind)
	}
	if e.pending.Get("CA3") != nil {
		t.Fatal("aborted call still has pending state")
	}
}

func TestUnclearTextAsksForRepeat(t *testing.T) {
	e, _, _ := newTestEngine(t)
	out := e.Process(context.Background(), "CA4", "+15550004444", "¿¿¿¿", nil, "")
	if out.Kind != models.OutcomeClarify {
		t.Fatalf("garbled text should ask for a repeat, got %v", out.Kind)
	}
}

func TestSuggestSlotThenAcceptWithDetails(t *testing.T) {
	e, _, ext := newTestEngine(t)
	ctx := context.Background()

	ext.facts = models.ExtractedFacts{Intent: "ask_availability", DoctorKey: "dr-alan"}
	out := e.Process(ctx, "CA5", "+15550005555", "when can I see doctor alan", nil, "")
	if out.Kind != models.OutcomeSuggestSlot {
		t.Fatalf("availability question should suggest the nearest slot, got %v", out.Kind)
	}
	if out.Date != "2026-03-11" || out.Time != "10:00 AM" {
		t.Fatalf("nearest slot is %s %s, want 2026-03-11 10:00 AM", out.Date, out.Time)
	}

	ext.facts = models.ExtractedFacts{Intent: "none", PatientName: "Bob Ray", PatientPhone: "555-987-6543"}
	out = e.Process(ctx, "CA5", "+15550005555", "my name is Bob Ray, 555-987-6543", nil, "")
	if out.Kind != models.OutcomeConfirmBooking {
		t.Fatalf("details after a suggestion should open the confirm gate, got %v", out.Kind)
	}

	ext.facts = noFacts()
	if out = e.Process(ctx, "CA5", "+15550005555", "yes please", nil, ""); out.Kind != models.OutcomeConfirmed {
		t.Fatalf("confirmation should book the suggested slot, got %v", out.Kind)
	}
}

func TestOtherDatesAfterSuggestion(t *testing.T) {
	e, _, ext := newTestEngine(t)
	ctx := context.Background()

	ext.facts = models.ExtractedFacts{Intent: "ask_availability", DoctorKey: "dr-alan"}
	if out := e.Process(ctx, "CA6", "+15550006666", "any openings with alan", nil, ""); out.Kind != models.OutcomeSuggestSlot {
		t.Fatalf("setup failed, got %v", out.Kind)
	}

	ext.facts = noFacts()
	out := e.Process(ctx, "CA6", "+15550006666", "what other dates does he have", nil, "")
	if out.Kind != models.OutcomeOfferOtherDates {
		t.Fatalf("other-dates request should list alternatives, got %v", out.Kind)
	}
	if len(out.Dates) != 1 || out.Dates[0] != "2026-03-12" {
		t.Fatalf("alternative dates = %v, want [2026-03-12]", out.Dates)
	}
}

func TestCancelThenSlotReopens(t *testing.T) {
	e, repo, ext := newTestEngine(t)
	ctx := context.Background()

	ext.facts = models.ExtractedFacts{
		Intent: "book", DoctorKey: "dr-alan", Date: "2026-03-11", Time: "10:00 AM",
		PatientName: "Jane", PatientPhone: "555-123-4567",
	}
	e.Process(ctx, "CA7", "+15550007777", "book alan tomorrow 10", nil, "")
	ext.facts = noFacts()
	if out := e.Process(ctx, "CA7", "+15550007777", "yes", nil, ""); out.Kind != models.OutcomeConfirmed {
		t.Fatalf("setup booking failed, got %v", out.Kind)
	}

	ext.facts = models.ExtractedFacts{Intent: "cancel"}
	out := e.Process(ctx, "CA8", "+15550007777", "I need to cancel my appointment", nil, "")
	if out.Kind != models.OutcomeConfirmCancel {
		t.Fatalf("cancel intent should ask for confirmation, got %v", out.Kind)
	}

	ext.facts = noFacts()
	out = e.Process(ctx, "CA8", "+15550007777", "yes", nil, "")
	if out.Kind != models.OutcomeCancelled {
		t.Fatalf("confirmed cancel should report cancelled, got %v", out.Kind)
	}

	slot, _ := repo.FindSlot(ctx, models.SlotRef{DoctorKey: "dr-alan", Date: "2026-03-11", Time: "10:00 AM"})
	if slot.Status != models.SlotAvailable {
		t.Fatal("cancelled appointment must release its slot")
	}
	if _, err := repo.ActiveAppointmentByCaller(ctx, "+15550007777"); err != clinicRepo.ErrNotFound {
		t.Fatalf("caller should have no active appointment, got %v", err)
	}
}

func TestRescheduleMovesAppointment(t *testing.T) {
	e, repo, ext := newTestEngine(t)
	ctx := context.Background()

	ext.facts = models.ExtractedFacts{
		Intent: "book", DoctorKey: "dr-alan", Date: "2026-03-11", Time: "10:00 AM",
		PatientName: "Jane", PatientPhone: "555-123-4567",
	}
	e.Process(ctx, "CA9", "+15550009999", "book alan", nil, "")
	ext.facts = noFacts()
	e.Process(ctx, "CA9", "+15550009999", "yes", nil, "")

	ext.facts = models.ExtractedFacts{Intent: "reschedule", Date: "2026-03-12", Time: "2:00 PM"}
	out := e.Process(ctx, "CA10", "+15550009999", "can we move it to the 12th at 2pm", nil, "")
	if out.Kind != models.OutcomeConfirmResched {
		t.Fatalf("reschedule with a target should ask for confirmation, got %v", out.Kind)
	}

	ext.facts = noFacts()
	out = e.Process(ctx, "CA10", "+15550009999", "yes", nil, "")
	if out.Kind != models.OutcomeRescheduled {
		t.Fatalf("confirmed reschedule should report success, got %v", out.Kind)
	}

	oldSlot, _ := repo.FindSlot(ctx, models.SlotRef{DoctorKey: "dr-alan", Date: "2026-03-11", Time: "10:00 AM"})
	newSlot, _ := repo.FindSlot(ctx, models.SlotRef{DoctorKey: "dr-alan", Date: "2026-03-12", Time: "2:00 PM"})
	if oldSlot.Status != models.SlotAvailable || newSlot.Status != models.SlotBooked {
		t.Fatalf("slot statuses after move: old=%s new=%s", oldSlot.Status, newSlot.Status)
	}

	appt, err := repo.ActiveAppointmentByCaller(ctx, "+15550009999")
	if err != nil {
		t.Fatal(err)
	}
	if appt.Date != "2026-03-12" || appt.Time != "2:00 PM" {
		t.Fatalf("appointment not moved: %+v", appt)
	}
}

func TestConflictedYesAnswersDoctorQuestionFirst(t *testing.T) {
	e, _, ext := newTestEngine(t)
	ctx := context.Background()

	ext.facts = models.ExtractedFacts{
		Intent: "book", DoctorKey: "dr-alan", Date: "2026-03-11", Time: "10:00 AM",
		PatientName: "Jane", PatientPhone: "555-123-4567",
	}
	if out := e.Process(ctx, "CA12", "+15550001212", "book it", nil, ""); out.Kind != models.OutcomeConfirmBooking {
		t.Fatalf("setup failed, got %v", out.Kind)
	}

	ext.facts = noFacts()
	out := e.Process(ctx, "CA12", "+15550001212", "yes but tell me about the doctor first", nil, "")
	if out.Kind != models.OutcomeSuggestDoctor {
		t.Fatalf("question-and-yes should answer the question, got %v", out.Kind)
	}
	if out.DoctorName != "Dr. Alan Smith" {
		t.Fatalf("answered about %q, want Dr. Alan Smith", out.DoctorName)
	}
	if state := e.pending.Get("CA12"); state == nil || !state.AwaitingConfirmBook {
		t.Fatal("answering the question must keep the confirm gate open")
	}

	if out = e.Process(ctx, "CA12", "+15550001212", "yes", nil, ""); out.Kind != models.OutcomeConfirmed {
		t.Fatalf("clean yes after the answer should book, got %v", out.Kind)
	}
}

func TestConflictedYesSwitchingDoctorListsRoster(t *testing.T) {
	e, _, ext := newTestEngine(t)
	ctx := context.Background()

	ext.facts = models.ExtractedFacts{
		Intent: "book", DoctorKey: "dr-alan", Date: "2026-03-11", Time: "10:00 AM",
		PatientName: "Jane", PatientPhone: "555-123-4567",
	}
	if out := e.Process(ctx, "CA13", "+15550001313", "book it", nil, ""); out.Kind != models.OutcomeConfirmBooking {
		t.Fatalf("setup failed, got %v", out.Kind)
	}

	ext.facts = noFacts()
	out := e.Process(ctx, "CA13", "+15550001313", "yes actually can we switch to a different doctor", nil, "")
	if out.Kind != models.OutcomeListDoctors {
		t.Fatalf("switching doctors mid-confirm should list the roster, got %v", out.Kind)
	}
	if state := e.pending.Get("CA13"); state != nil && state.AwaitingConfirmBook {
		t.Fatal("switching doctors must close the confirm gate")
	}
}

func TestRescheduleToOwnSlotRestatesAppointment(t *testing.T) {
	e, _, ext := newTestEngine(t)
	ctx := context.Background()

	ext.facts = models.ExtractedFacts{
		Intent: "book", DoctorKey: "dr-alan", Date: "2026-03-11", Time: "10:00 AM",
		PatientName: "Jane", PatientPhone: "555-123-4567",
	}
	e.Process(ctx, "CA14", "+15550001414", "book alan", nil, "")
	ext.facts = noFacts()
	e.Process(ctx, "CA14", "+15550001414", "yes", nil, "")

	ext.facts = models.ExtractedFacts{Intent: "reschedule", Date: "2026-03-11", Time: "10 am"}
	out := e.Process(ctx, "CA15", "+15550001414", "move it to the 11th at 10", nil, "")
	if out.Kind != models.OutcomeMessage || out.MessageKey != models.MsgHaveAppointment {
		t.Fatalf("moving onto the held slot should restate the appointment, got %v/%s", out.Kind, out.MessageKey)
	}
	if out.Date != "2026-03-11" || out.Time != "10:00 AM" {
		t.Fatalf("restated %s %s, want the held 2026-03-11 10:00 AM", out.Date, out.Time)
	}
}

func TestRescheduleSlotTakenKeepsRequestOpen(t *testing.T) {
	e, repo, ext := newTestEngine(t)
	ctx := context.Background()

	ext.facts = models.ExtractedFacts{
		Intent: "book", DoctorKey: "dr-alan", Date: "2026-03-11", Time: "10:00 AM",
		PatientName: "Jane", PatientPhone: "555-123-4567",
	}
	e.Process(ctx, "CA16", "+15550001616", "book alan", nil, "")
	ext.facts = noFacts()
	e.Process(ctx, "CA16", "+15550001616", "yes", nil, "")

	ext.facts = models.ExtractedFacts{Intent: "reschedule", Date: "2026-03-12", Time: "2:00 PM"}
	if out := e.Process(ctx, "CA17", "+15550001616", "move me to the 12th at 2", nil, ""); out.Kind != models.OutcomeConfirmResched {
		t.Fatalf("setup failed, got %v", out.Kind)
	}

	// Another caller takes the target slot before the confirmation lands.
	ext.facts = models.ExtractedFacts{
		Intent: "book", DoctorKey: "dr-alan", Date: "2026-03-12", Time: "2:00 PM",
		PatientName: "Bob", PatientPhone: "555-987-6543",
	}
	e.Process(ctx, "CA18", "+15550001818", "book alan thursday at 2", nil, "")
	ext.facts = noFacts()
	if out := e.Process(ctx, "CA18", "+15550001818", "yes", nil, ""); out.Kind != models.OutcomeConfirmed {
		t.Fatalf("competing booking failed, got %v", out.Kind)
	}

	out := e.Process(ctx, "CA17", "+15550001616", "yes", nil, "")
	if out.Kind != models.OutcomeSlotUnavailable {
		t.Fatalf("taken slot should be reported unavailable, got %v", out.Kind)
	}
	state := e.pending.Get("CA17")
	if state == nil || state.RescheduleDoctorKey != "dr-alan" {
		t.Fatal("failed reschedule must stay open for another time")
	}
	if state.AwaitingConfirmReschedule {
		t.Fatal("dead target must not keep the confirm gate armed")
	}

	// Naming another time continues the same reschedule.
	repo.AddSlot(models.AppointmentSlot{
		ID: "s3", DoctorKey: "dr-alan", Date: "2026-03-13",
		StartTime: "11:00 AM", StartMinutes: 660, Status: models.SlotAvailable,
	})
	ext.facts = models.ExtractedFacts{Intent: "none", Date: "2026-03-13", Time: "11 AM"}
	out = e.Process(ctx, "CA17", "+15550001616", "how about the 13th at 11 then", nil, "")
	if out.Kind != models.OutcomeConfirmResched {
		t.Fatalf("new time should reopen the confirm gate, got %v", out.Kind)
	}
	if out.Date != "2026-03-13" || out.Time != "11:00 AM" {
		t.Fatalf("confirming %s %s, want 2026-03-13 11:00 AM", out.Date, out.Time)
	}

	ext.facts = noFacts()
	if out = e.Process(ctx, "CA17", "+15550001616", "yes", nil, ""); out.Kind != models.OutcomeRescheduled {
		t.Fatalf("confirmed retry should move the appointment, got %v", out.Kind)
	}
	appt, err := repo.ActiveAppointmentByCaller(ctx, "+15550001616")
	if err != nil {
		t.Fatal(err)
	}
	if appt.Date != "2026-03-13" || appt.Time != "11:00 AM" {
		t.Fatalf("appointment not moved: %+v", appt)
	}
}

func TestEndCallPhraseSaysGoodbye(t *testing.T) {
	e, _, _ := newTestEngine(t)
	out := e.Process(context.Background(), "CA11", "+15550001111", "that's all, goodbye", nil, "")
	if out.Kind != models.OutcomeGoodbye || !out.EndCall {
		t.Fatalf("farewell should end the call, got %v endCall=%v", out.Kind, out.EndCall)
	}
}
