package nlu

import (
	"regexp"
	"strings"

	"receptionist/models"
)

// Keyword patterns for the multi-intent classifier. An utterance may match
// several at once; the result carries the full set plus a conflict flag so
// the priority resolver can decide what to act on.
var (
	askDoctorInfoPattern = regexp.MustCompile(`\b(tell me about|tell about|explain about|explain|about (dr\.?|doctor)|what('s| is) (dr\.?|doctor)|know about|whole experience|before that|before (i |we )?confirm|describe|info about|can you (tell|explain) about)\b`)

	// "confirm the doctor" means verify who, not confirm the booking.
	confirmYesExcludePattern = regexp.MustCompile(`\b(confirm the doctor|confirm who|confirm (which|what) doctor|before (i |we )?book|before booking)\b`)

	confirmYesPattern = regexp.MustCompile(`\b(yes|yeah|yep|yup|ok|okay|sure|confirm|confirmed|correct|right|absolutely|definitely)\b`)

	confirmNoPattern = regexp.MustCompile(`\b(no|nope|nah|cancel|never mind|don't|wait|not now)\b`)

	requestSlotsPattern = regexp.MustCompile(`\b(slots?|availability|available|times?|dates?|schedule|when (is|are)|check (slots?|availability))\b`)

	changeDoctorPattern = regexp.MustCompile(`\b(different doctor|another doctor|switch|change doctor|other doctor)\b`)

	bookPattern = regexp.MustCompile(`\b(book|appointment|schedule an?|want (an? |to )?appointment)\b`)

	cancelPattern = regexp.MustCompile(`\b(cancel|delete|remove|drop)\b`)

	reschedulePattern = regexp.MustCompile(`\b(reschedule|change (date|time)|move (it|appointment)|postpone)\b`)

	checkAppointmentsPattern = regexp.MustCompile(`\b(do i have|my appointment|any appointment|list (my )?appointment|what('s| are) my)\b`)

	provideDetailsPattern = regexp.MustCompile(`\b(name is|phone is|number is|my name|call me|i'm |i am )\b|\d{3}[-. ]?\d{3}[-. ]?\d{4}`)
)

// ClassifyIntents detects every intent present in the utterance. It is a pure
// function of the text and the awaiting-confirmation hint; no transaction
// state is consulted.
func ClassifyIntents(userText string, awaitingConfirmation bool) models.IntentResult {
	text := strings.ToLower(strings.TrimSpace(userText))
	if text == "" {
		return models.EmptyIntentResult()
	}

	intents := make(map[models.Intent]bool)

	hasAskDoctorInfo := askDoctorInfoPattern.MatchString(text)
	confirmYesExcluded := confirmYesExcludePattern.MatchString(text)
	hasConfirmYes := !confirmYesExcluded && confirmYesPattern.MatchString(text)
	hasConfirmNo := confirmNoPattern.MatchString(text)
	hasRequestSlots := requestSlotsPattern.MatchString(text)
	hasChangeDoctor := changeDoctorPattern.MatchString(text)
	hasProvideDetails := provideDetailsPattern.MatchString(text)

	if hasAskDoctorInfo && !hasRequestSlots {
		intents[models.IntentAskDoctorInfo] = true
	}
	if hasConfirmYes {
		intents[models.IntentConfirmYes] = true
		if hasAskDoctorInfo {
			intents[models.IntentAskDoctorInfo] = true
		}
	}
	if hasConfirmNo {
		intents[models.IntentConfirmNo] = true
	}
	if hasRequestSlots && !hasAskDoctorInfo {
		intents[models.IntentRequestSlots] = true
	}
	if hasChangeDoctor {
		intents[models.IntentChangeDoctor] = true
	}
	if hasProvideDetails && awaitingConfirmation {
		intents[models.IntentProvideDetails] = true
	}

	// Appointment-management verbs override everything else in the turn.
	// Cancel and reschedule outrank the lookup: "cancel my appointment" is a
	// cancellation, not a question about what is booked.
	if cancelPattern.MatchString(text) && !reschedulePattern.MatchString(text) {
		return models.IntentResult{Intents: map[models.Intent]bool{models.IntentCancelAppointment: true}}
	}
	if reschedulePattern.MatchString(text) {
		return models.IntentResult{Intents: map[models.Intent]bool{models.IntentReschedule: true}}
	}
	if checkAppointmentsPattern.MatchString(text) {
		return models.IntentResult{Intents: map[models.Intent]bool{models.IntentCheckAppointments: true}}
	}
	if bookPattern.MatchString(text) && !awaitingConfirmation {
		intents[models.IntentBookAppointment] = true
	}

	conflict := intents[models.IntentConfirmYes] &&
		(intents[models.IntentAskDoctorInfo] || intents[models.IntentChangeDoctor])

	if len(intents) == 0 {
		return models.EmptyIntentResult()
	}
	return models.IntentResult{Intents: intents, Conflict: conflict}
}
