package models

import "time"

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of the call transcript.
type ChatMessage struct {
	CallID    string    `bson:"callId" json:"callId"`
	From      string    `bson:"from,omitempty" json:"from,omitempty"`
	Role      string    `bson:"role" json:"role"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// ExtractedFacts is the best-effort structured output of the fact-extraction
// collaborator. Empty fields mean "not mentioned".
type ExtractedFacts struct {
	Intent            string `json:"intent"` // book|cancel|reschedule|check_appointments|ask_availability|list_doctors|none
	IsGeneralQuestion bool   `json:"is_general_question"`
	DoctorKey         string `json:"doctorKey"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	PatientName       string `json:"patientName"`
	PatientPhone      string `json:"patientPhone"`
}
