package flow

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDatePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateFillerPattern = regexp.MustCompile(`(yeah|i need|i want|for|on|about)`)

	hourOnlyPattern    = regexp.MustCompile(`^\d{1,2}$`)
	hourMeridiemShort  = regexp.MustCompile(`(?i)^(\d{1,2})\s*(a\.?m\.?|p\.?m\.?)$`)
	clockPattern       = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	clockMeridiem      = regexp.MustCompile(`(?i)^\d{1,2}:\d{2}\s*(AM|PM)$`)
	hourMeridiemDigits = regexp.MustCompile(`(?i)(\d{1,2})\s*(AM|PM)`)
)

// normalizeTypos fixes common speech-to-text slips before classification.
func normalizeTypos(text string) string {
	re := regexp.MustCompile(`(?i)\bapartment\b`)
	return re.ReplaceAllString(text, "appointment")
}

// NormalizeDate resolves a spoken date against the call's current date.
// Accepted: ISO "YYYY-MM-DD", "today", "tomorrow", "day after". Anything else
// is unresolvable and returns "" — no booking attempt is made on a guess.
func NormalizeDate(d string, now time.Time) string {
	if d == "" {
		return ""
	}
	d = strings.TrimSpace(dateFillerPattern.ReplaceAllString(strings.ToLower(d), ""))

	if isoDatePattern.MatchString(d) {
		return d
	}
	switch {
	case d == "today":
		return now.Format("2006-01-02")
	case d == "tomorrow":
		return now.AddDate(0, 0, 1).Format("2006-01-02")
	case strings.Contains(d, "day after"):
		return now.AddDate(0, 0, 2).Format("2006-01-02")
	}
	return ""
}

// NormalizeTime canonicalizes spoken time to "H:MM AM/PM" slot format.
// Ranges are reduced to their start ("6 to 7" -> "6"); 24-hour "HH:MM" is
// converted with the midnight/noon boundary handled explicitly.
func NormalizeTime(t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		return ""
	}
	if i := strings.Index(t, " to "); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}

	if m := hourMeridiemShort.FindStringSubmatch(t); m != nil {
		h, _ := strconv.Atoi(m[1])
		if h == 0 {
			h = 12
		}
		mer := "AM"
		if strings.HasPrefix(strings.ToLower(m[2]), "p") {
			mer = "PM"
		}
		return fmt.Sprintf("%d:00 %s", clamp12(h), mer)
	}

	t = strings.ReplaceAll(t, ".", ":")
	if clockMeridiem.MatchString(t) {
		return canonicalizeClock(t)
	}
	if clockPattern.MatchString(t) {
		parts := strings.SplitN(t, ":", 2)
		h, _ := strconv.Atoi(parts[0])
		min := parts[1]
		switch {
		case h == 0:
			return fmt.Sprintf("12:%s AM", min)
		case h < 12:
			return fmt.Sprintf("%d:%s AM", h, min)
		case h == 12:
			return fmt.Sprintf("12:%s PM", min)
		default:
			return fmt.Sprintf("%d:%s PM", h-12, min)
		}
	}
	if m := hourMeridiemDigits.FindStringSubmatch(t); m != nil && len(t) <= 6 {
		h, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%d:00 %s", clamp12(h), strings.ToUpper(m[2]))
	}
	if hourOnlyPattern.MatchString(t) {
		// A bare hour on a phone call is taken as daytime: 1-11 is PM.
		h, _ := strconv.Atoi(t)
		switch {
		case h >= 1 && h <= 11:
			return fmt.Sprintf("%d:00 PM", h)
		case h == 12:
			return "12:00 PM"
		case h == 0:
			return "12:00 AM"
		}
	}
	return t
}

func clamp12(h int) int {
	if h == 0 || h == 12 {
		return 12
	}
	return h % 12
}

// canonicalizeClock strips a leading zero and uppercases the meridiem so
// "09:00 am" compares equal to the stored "9:00 AM".
func canonicalizeClock(t string) string {
	t = strings.ToUpper(strings.TrimSpace(t))
	t = strings.Replace(t, "AM", " AM", 1)
	t = strings.Replace(t, "PM", " PM", 1)
	t = strings.Join(strings.Fields(t), " ")
	t = strings.TrimPrefix(t, "0")
	return t
}

// SameClockTime compares two normalized time strings ignoring case, spacing
// and leading zeros.
func SameClockTime(a, b string) bool {
	norm := func(s string) string {
		s = strings.ToLower(strings.ReplaceAll(s, " ", ""))
		return strings.TrimLeft(s, "0")
	}
	return norm(a) == norm(b)
}
