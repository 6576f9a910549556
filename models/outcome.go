package models

// OutcomeKind tags a structured flow result. The flow engine never produces
// natural-language text; the response renderer owns the wording.
type OutcomeKind string

const (
	OutcomeNone            OutcomeKind = "none"    // defer to the open-ended responder
	OutcomeMessage         OutcomeKind = "message" // keyed canned phrase
	OutcomeClarify         OutcomeKind = "clarify" // repeat-prompt, state untouched
	OutcomeAbortBooking    OutcomeKind = "abort_booking"
	OutcomeGoodbye         OutcomeKind = "goodbye" // terminal, ends the call
	OutcomeListDoctors     OutcomeKind = "list_doctors"
	OutcomeSuggestDoctor   OutcomeKind = "suggest_doctor"
	OutcomeSuggestSlot     OutcomeKind = "suggest_slot"
	OutcomeOfferOtherDates OutcomeKind = "offer_other_dates"
	OutcomeAskNamePhone    OutcomeKind = "ask_name_phone"
	OutcomeConfirmBooking  OutcomeKind = "confirm_booking"
	OutcomeConfirmCancel   OutcomeKind = "confirm_cancel"
	OutcomeConfirmResched  OutcomeKind = "confirm_reschedule"
	OutcomeConfirmed       OutcomeKind = "confirmed"
	OutcomeCancelled       OutcomeKind = "cancelled"
	OutcomeRescheduled     OutcomeKind = "rescheduled"
	OutcomeSlotUnavailable OutcomeKind = "slot_unavailable"
	OutcomeNoAppointments  OutcomeKind = "no_appointments"
)

// Message keys used with OutcomeMessage.
const (
	MsgWhichDoctor          = "whichDoctor"
	MsgDifferentTime        = "differentTime"
	MsgDoctorNoAvailability = "doctorNoAvailability"
	MsgNoDoctorsAvailable   = "noDoctorsAvailable"
	MsgNoOtherDates         = "noOtherDates"
	MsgTryAgainDetails      = "tryAgainDetails"
	MsgCouldntCancel        = "couldntCancel"
	MsgStillThere           = "stillThere"
	MsgReturnToFlow         = "returnToFlow"
	MsgKeptAppointment      = "keptAppointment"
	MsgAskNewSlot           = "askNewSlot"
	MsgHaveAppointment      = "haveAppointment"
)

// Outcome is the single structured result of processing one utterance.
type Outcome struct {
	Kind       OutcomeKind `json:"kind"`
	MessageKey string      `json:"messageKey,omitempty"`

	DoctorKey      string   `json:"doctorKey,omitempty"`
	DoctorName     string   `json:"doctorName,omitempty"`
	Specialization string   `json:"specialization,omitempty"`
	Date           string   `json:"date,omitempty"`
	Time           string   `json:"time,omitempty"`
	Dates          []string `json:"dates,omitempty"`   // for offer-other-dates
	Doctors        []Doctor `json:"doctors,omitempty"` // for list-doctors

	// EndCall tells the telephony bridge to terminate after speaking.
	EndCall bool `json:"endCall,omitempty"`
}

// OutcomeOf builds a bare outcome of the given kind.
func OutcomeOf(kind OutcomeKind) Outcome {
	return Outcome{Kind: kind, EndCall: kind == OutcomeGoodbye}
}

// OutcomeMsg builds a keyed message outcome.
func OutcomeMsg(key string) Outcome {
	return Outcome{Kind: OutcomeMessage, MessageKey: key}
}
