package respond

import (
	"strings"
	"testing"

	"receptionist/models"
)

func TestRenderConfirmBooking(t *testing.T) {
	out := models.Outcome{
		Kind: models.OutcomeConfirmBooking, DoctorName: "Dr. Alan Smith",
		Date: "2026-03-11", Time: "10:00 AM",
	}
	got := Render(out)
	for _, want := range []string{"Dr. Alan Smith", "Wednesday, March 11", "10:00 AM"} {
		if !strings.Contains(got, want) {
			t.Errorf("confirm text %q missing %q", got, want)
		}
	}
	if !strings.Contains(got, "?") {
		t.Errorf("confirm text %q should ask a question", got)
	}
}

func TestRenderGoodbyeMatchesEndCall(t *testing.T) {
	out := models.OutcomeOf(models.OutcomeGoodbye)
	if !out.EndCall {
		t.Fatal("goodbye outcome must end the call")
	}
	if got := Render(out); !strings.Contains(strings.ToLower(got), "goodbye") {
		t.Errorf("goodbye text %q", got)
	}
}

func TestRenderDoctorList(t *testing.T) {
	out := models.Outcome{Kind: models.OutcomeListDoctors, Doctors: []models.Doctor{
		{Name: "Dr. Alan Smith", Specialization: "Dentist"},
		{Name: "Dr. Bella Cruz", Specialization: "Cardiologist"},
	}}
	got := Render(out)
	if !strings.Contains(got, "Dr. Alan Smith, our dentist and Dr. Bella Cruz, our cardiologist") {
		t.Errorf("doctor list text %q", got)
	}
}

func TestRenderSpeaksNoISODates(t *testing.T) {
	out := models.Outcome{Kind: models.OutcomeSuggestSlot, DoctorName: "Dr. Alan Smith", Date: "2026-03-11", Time: "10:00 AM"}
	if got := Render(out); strings.Contains(got, "2026-03-11") {
		t.Errorf("spoken text leaks an ISO date: %q", got)
	}
}

func TestRenderEveryMessageKeyHasText(t *testing.T) {
	keys := []string{
		models.MsgWhichDoctor, models.MsgDifferentTime, models.MsgDoctorNoAvailability,
		models.MsgNoDoctorsAvailable, models.MsgNoOtherDates, models.MsgTryAgainDetails,
		models.MsgCouldntCancel, models.MsgStillThere, models.MsgReturnToFlow,
		models.MsgKeptAppointment, models.MsgAskNewSlot,
	}
	for _, k := range keys {
		if got := Render(models.OutcomeMsg(k)); got == "" {
			t.Errorf("message key %q renders empty", k)
		}
	}
}
