package flow

import (
	"strings"
	"unicode"

	"receptionist/models"
)

// symptomSpecializations maps common complaint words to the specialization
// that treats them, so "my tooth hurts" resolves to the dentist without a
// model round trip.
var symptomSpecializations = map[string]string{
	"tooth":     "Dentist",
	"teeth":     "Dentist",
	"toothache": "Dentist",
	"gum":       "Dentist",
	"skin":      "Dermatologist",
	"rash":      "Dermatologist",
	"acne":      "Dermatologist",
	"heart":     "Cardiologist",
	"chest":     "Cardiologist",
	"eye":       "Ophthalmologist",
	"eyes":      "Ophthalmologist",
	"vision":    "Ophthalmologist",
	"bone":      "Orthopedist",
	"joint":     "Orthopedist",
	"knee":      "Orthopedist",
	"back":      "Orthopedist",
	"child":     "Pediatrician",
	"kid":       "Pediatrician",
	"baby":      "Pediatrician",
	"throat":    "ENT",
	"ear":       "ENT",
	"nose":      "ENT",
	"sinus":     "ENT",
}

// resolveDoctorKey matches an utterance against the active roster: by key
// fragment ("alan" matches "dr-alan"), by name word, by specialization, or by
// a symptom that maps to a specialization. Empty means no unambiguous match.
func resolveDoctorKey(lower string, doctors []models.Doctor) string {
	for _, d := range doctors {
		frag := strings.TrimPrefix(strings.ToLower(d.Key), "dr-")
		if frag != "" && strings.Contains(lower, frag) {
			return d.Key
		}
		for _, w := range strings.Fields(strings.ToLower(d.Name)) {
			w = strings.Trim(w, ".")
			if w == "dr" || len(w) < 3 {
				continue
			}
			if strings.Contains(lower, w) {
				return d.Key
			}
		}
	}
	for _, d := range doctors {
		if d.Specialization != "" && strings.Contains(lower, strings.ToLower(d.Specialization)) {
			return d.Key
		}
	}
	for _, word := range strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) }) {
		specialization, ok := symptomSpecializations[word]
		if !ok {
			continue
		}
		for _, d := range doctors {
			if strings.EqualFold(d.Specialization, specialization) {
				return d.Key
			}
		}
	}
	return ""
}

func doctorByKey(doctors []models.Doctor, key string) *models.Doctor {
	for i := range doctors {
		if doctors[i].Key == key {
			return &doctors[i]
		}
	}
	return nil
}
