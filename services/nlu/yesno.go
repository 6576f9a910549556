package nlu

import (
	"regexp"
	"strings"

	"receptionist/models"
)

// Short utterances are matched against the exact term sets before any pattern
// matching; a curated "yes" beats a substring hit every time.
const shortUtteranceLimit = 20

var affirmativeExact = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "ya": true, "yup": true,
	"ok": true, "okay": true, "sure": true, "correct": true,
	"right": true, "confirm": true, "confirmed": true,
	"go ahead": true, "please do": true, "do it": true,
	"that works": true, "sounds good": true, "perfect": true,
	"that's fine": true, "thats fine": true,
}

var negativeExact = map[string]bool{
	"no": true, "nope": true, "nah": true, "cancel": true, "stop": true,
	"never mind": true, "nevermind": true, "dont": true, "don't": true,
	"wait": true, "not now": true, "not yet": true, "hold on": true,
}

var yesPattern = regexp.MustCompile(`\b(yes|yeah|yep|ok|okay|sure|confirm|correct|right|go ahead|please do)\b`)

var noPattern = regexp.MustCompile(`\b(no|nope|nah|cancel|stop|never mind|dont|don't|wait|not now)\b`)

// ClassifyYesNo maps an utterance to YES, NO or UNKNOWN. A simultaneous match
// on both keyword sets is UNKNOWN, never NO: an ambiguous answer must not pass
// for a confirmation, and must not pass for a decline either.
func ClassifyYesNo(input string) models.YesNoResult {
	text := strings.ToLower(strings.TrimSpace(input))
	if text == "" {
		return models.YesNoUnknown
	}

	if len(text) <= shortUtteranceLimit {
		if affirmativeExact[text] {
			return models.YesNoYes
		}
		if negativeExact[text] {
			return models.YesNoNo
		}
	}

	yes := yesPattern.MatchString(text)
	no := noPattern.MatchString(text)

	if yes && !no {
		return models.YesNoYes
	}
	if no && !yes {
		return models.YesNoNo
	}
	return models.YesNoUnknown
}
