package models

// YesNoResult is the verdict of the yes/no classifier.
type YesNoResult int

const (
	YesNoUnknown YesNoResult = iota
	YesNoYes
	YesNoNo
)

func (r YesNoResult) String() string {
	switch r {
	case YesNoYes:
		return "YES"
	case YesNoNo:
		return "NO"
	default:
		return "UNKNOWN"
	}
}

// Intent tags detected in an utterance. An utterance may carry several at
// once ("yes, but tell me about the doctor first").
type Intent string

const (
	IntentNone              Intent = "none"
	IntentAskDoctorInfo     Intent = "ask_doctor_info"
	IntentChangeDoctor      Intent = "change_doctor"
	IntentRequestSlots      Intent = "request_slots"
	IntentProvideDetails    Intent = "provide_details"
	IntentConfirmYes        Intent = "confirm_yes"
	IntentConfirmNo         Intent = "confirm_no"
	IntentBookAppointment   Intent = "book"
	IntentCancelAppointment Intent = "cancel"
	IntentReschedule        Intent = "reschedule"
	IntentCheckAppointments Intent = "check_appointments"
)

// IntentResult is the immutable output of the multi-intent classifier.
type IntentResult struct {
	Intents  map[Intent]bool
	Conflict bool // two or more mutually exclusive tags co-occur
}

// EmptyIntentResult returns a result carrying only IntentNone.
func EmptyIntentResult() IntentResult {
	return IntentResult{Intents: map[Intent]bool{IntentNone: true}}
}

// Has reports whether the tag was detected.
func (r IntentResult) Has(i Intent) bool {
	return r.Intents[i]
}

// IsSingle reports whether the set contains exactly the given tag.
func (r IntentResult) IsSingle(i Intent) bool {
	return len(r.Intents) == 1 && r.Intents[i]
}
