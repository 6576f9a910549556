package respond

import (
	"fmt"
	"strings"
	"time"

	"receptionist/models"
)

// Render turns a structured flow outcome into one spoken sentence. It is a
// pure function of the outcome; no state, no I/O.
func Render(out models.Outcome) string {
	switch out.Kind {
	case models.OutcomeMessage:
		return renderMessage(out)
	case models.OutcomeClarify:
		return "Sorry, I didn't catch that. Could you repeat it?"
	case models.OutcomeAbortBooking:
		return "No problem, I've cancelled that request. Is there anything else I can help with?"
	case models.OutcomeGoodbye:
		return "Thank you for calling. Goodbye!"
	case models.OutcomeListDoctors:
		return renderDoctorList(out.Doctors)
	case models.OutcomeSuggestDoctor:
		return fmt.Sprintf("%s is our %s. Would you like to book an appointment?",
			out.DoctorName, strings.ToLower(out.Specialization))
	case models.OutcomeSuggestSlot:
		return fmt.Sprintf("The next opening with %s is %s at %s. Would that work for you?",
			doctorLabel(out), speakDate(out.Date), out.Time)
	case models.OutcomeOfferOtherDates:
		return fmt.Sprintf("%s also has openings on %s. Would any of those suit you?",
			doctorLabel(out), speakDates(out.Dates))
	case models.OutcomeAskNamePhone:
		return "Great. Can I have your name and phone number to book that?"
	case models.OutcomeConfirmBooking:
		return fmt.Sprintf("Just to confirm: an appointment with %s on %s at %s. Shall I book it?",
			doctorLabel(out), speakDate(out.Date), out.Time)
	case models.OutcomeConfirmCancel:
		return fmt.Sprintf("You have an appointment with %s on %s at %s. Are you sure you want to cancel it?",
			doctorLabel(out), speakDate(out.Date), out.Time)
	case models.OutcomeConfirmResched:
		return fmt.Sprintf("I can move your appointment to %s on %s at %s. Shall I go ahead?",
			doctorLabel(out), speakDate(out.Date), out.Time)
	case models.OutcomeConfirmed:
		return fmt.Sprintf("You're all set. Your appointment with %s is booked for %s at %s.",
			doctorLabel(out), speakDate(out.Date), out.Time)
	case models.OutcomeCancelled:
		return "Your appointment has been cancelled. Is there anything else I can help with?"
	case models.OutcomeRescheduled:
		return fmt.Sprintf("Done. Your appointment is now with %s on %s at %s.",
			doctorLabel(out), speakDate(out.Date), out.Time)
	case models.OutcomeSlotUnavailable:
		return "I'm sorry, that time was just taken. Would you like a different time?"
	case models.OutcomeNoAppointments:
		return "I don't see any upcoming appointments under this number."
	}
	return ""
}

func renderMessage(out models.Outcome) string {
	switch out.MessageKey {
	case models.MsgWhichDoctor:
		return "Which doctor would you like to see?"
	case models.MsgDifferentTime:
		return "No problem. Would a different time work better?"
	case models.MsgDoctorNoAvailability:
		return "I'm sorry, that doctor has no openings in the next few days."
	case models.MsgNoDoctorsAvailable:
		return "I'm sorry, no doctors are available right now."
	case models.MsgNoOtherDates:
		return "I'm afraid there are no other dates with openings at the moment."
	case models.MsgTryAgainDetails:
		return "Something went wrong on my end. Could we try that again?"
	case models.MsgCouldntCancel:
		return "I wasn't able to cancel that just now. Could we try again in a moment?"
	case models.MsgStillThere:
		return "Are you still there?"
	case models.MsgReturnToFlow:
		return "Happy to answer that in a moment. First, shall we finish what we started?"
	case models.MsgKeptAppointment:
		return "Alright, I've kept your appointment as it is."
	case models.MsgAskNewSlot:
		return "Sure. What day and time would you like to move it to?"
	case models.MsgHaveAppointment:
		return fmt.Sprintf("You have an appointment with %s on %s at %s.",
			doctorLabel(out), speakDate(out.Date), out.Time)
	}
	return "Sorry, could you say that again?"
}

func renderDoctorList(doctors []models.Doctor) string {
	parts := make([]string, 0, len(doctors))
	for _, d := range doctors {
		if d.Specialization != "" {
			parts = append(parts, fmt.Sprintf("%s, our %s", d.Name, strings.ToLower(d.Specialization)))
		} else {
			parts = append(parts, d.Name)
		}
	}
	return "We have " + joinSpoken(parts) + ". Who would you like to see?"
}

func doctorLabel(out models.Outcome) string {
	if out.DoctorName != "" {
		return out.DoctorName
	}
	return "the doctor"
}

// speakDate rewords "2026-09-02" as "Wednesday, September 2" so the TTS voice
// does not read an ISO string aloud.
func speakDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2")
}

func speakDates(dates []string) string {
	spoken := make([]string, 0, len(dates))
	for _, d := range dates {
		spoken = append(spoken, speakDate(d))
	}
	return joinSpoken(spoken)
}

func joinSpoken(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}
