package nlu

import "receptionist/models"

// Fixed precedence for multi-intent utterances, highest first. An information
// request always outranks a confirmation: "yes, but tell me about the doctor
// first" must answer the question, not book the slot.
var intentPriority = map[models.Intent]int{
	models.IntentAskDoctorInfo:  1,
	models.IntentChangeDoctor:   2,
	models.IntentRequestSlots:   3,
	models.IntentProvideDetails: 4,
	models.IntentConfirmYes:     5,
	models.IntentConfirmNo:      6,
}

const priorityDefault = 99

func priority(i models.Intent) int {
	if p, ok := intentPriority[i]; ok {
		return p
	}
	return priorityDefault
}

// Resolve picks the single intent to act on from a classified set.
func Resolve(result models.IntentResult) models.Intent {
	if len(result.Intents) == 0 {
		return models.IntentNone
	}
	best := models.IntentNone
	bestP := priorityDefault + 1
	for i := range result.Intents {
		if p := priority(i); p < bestP {
			best, bestP = i, p
		}
	}
	return best
}

// IsBookingAllowed is the strict gate in front of the allocator: only a clean,
// single confirm-yes may trigger a booking. Any multi-intent or conflicting
// utterance defers instead.
func IsBookingAllowed(result models.IntentResult) bool {
	return result.IsSingle(models.IntentConfirmYes) && !result.Conflict
}

// ShouldDeferConfirmation reports whether an in-progress confirmation must be
// parked while the caller's question is answered.
func ShouldDeferConfirmation(result models.IntentResult) bool {
	return result.Has(models.IntentAskDoctorInfo) || result.Has(models.IntentChangeDoctor)
}
