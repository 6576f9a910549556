package nlu

import "regexp"

var latinLetters = regexp.MustCompile(`[A-Za-z]`)

// IsUnclearText reports whether transcribed input is likely foreign or garbled
// speech: dominated by non-ASCII characters, or carrying no Latin letters at
// all. Such input short-circuits to a repeat prompt instead of reaching the
// flow engine.
func IsUnclearText(text string) bool {
	if text == "" {
		return false
	}
	nonASCII := 0
	for _, r := range text {
		if r > 127 {
			nonASCII++
		}
	}
	noLatin := !latinLetters.MatchString(text)
	return (nonASCII > 0 && nonASCII*2 >= len([]rune(text))) || noLatin
}
