package flow

import "strings"

var abortPhrases = []string{
	"cancel that",
	"cancel this",
	"never mind",
	"nevermind",
	"forget it",
	"don't book",
	"dont book",
	"stop booking",
	"leave it",
	"not anymore",
	"changed my mind",
}

var endCallPhrases = []string{
	"bye",
	"goodbye",
	"good bye",
	"hang up",
	"end the call",
	"end call",
	"that's all",
	"thats all",
	"that is all",
	"nothing else",
	"i'm done",
	"im done",
	"see you",
	"talk later",
}

var otherDatesPhrases = []string{
	"other date",
	"other dates",
	"another date",
	"another day",
	"different date",
	"different day",
	"some other day",
	"what other",
	"any other",
}

// isAbortRequest detects a mid-transaction abandon of whatever is pending.
func isAbortRequest(lower string) bool {
	for _, p := range abortPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// wantsEndCall detects an explicit request to finish the call.
func wantsEndCall(lower string) bool {
	for _, p := range endCallPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// isOtherDatesRequest detects "what about another day" after a slot was
// suggested.
func isOtherDatesRequest(lower string) bool {
	for _, p := range otherDatesPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// isFarewellAfterOffer catches the polite close that follows a "can I help
// with anything else" style turn: a short thanks with no new request asked.
func isFarewellAfterOffer(lower string, lastAssistantText string) bool {
	if len(lower) > 40 {
		return false
	}
	last := strings.ToLower(lastAssistantText)
	offered := strings.Contains(last, "anything else") || strings.Contains(last, "help with")
	if !offered {
		return false
	}
	if strings.Contains(lower, "no") && (strings.Contains(lower, "thank") || lower == "no" || lower == "nope") {
		return true
	}
	return strings.Contains(lower, "thank") && !strings.Contains(lower, "?")
}
