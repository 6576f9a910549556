package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"receptionist/models"
)

// FactExtractor derives best-effort structured booking facts from an
// utterance plus a bounded recent conversation summary. It is consumed as an
// opaque collaborator; extraction failure degrades to empty facts, never to a
// caller-facing error.
type FactExtractor interface {
	Extract(ctx context.Context, userText string, summary []string, doctors []models.Doctor) (models.ExtractedFacts, error)
}

// GeminiExtractor implements FactExtractor on the Gemini client.
type GeminiExtractor struct {
	client *GeminiClient
}

func NewGeminiExtractor(client *GeminiClient) *GeminiExtractor {
	return &GeminiExtractor{client: client}
}

const summaryWindow = 6

func (e *GeminiExtractor) Extract(ctx context.Context, userText string, summary []string, doctors []models.Doctor) (models.ExtractedFacts, error) {
	facts := models.ExtractedFacts{Intent: "none"}

	if strings.TrimSpace(userText) == "" {
		return facts, nil
	}

	raw, err := e.client.GenerateContent(ctx, buildExtractionPrompt(userText, summary, doctors))
	if err != nil {
		return facts, fmt.Errorf("fact extraction failed: %w", err)
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return facts, fmt.Errorf("fact extraction returned no JSON")
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &facts); err != nil {
		return models.ExtractedFacts{Intent: "none"}, fmt.Errorf("fact extraction JSON invalid: %w", err)
	}
	if facts.Intent == "" {
		facts.Intent = "none"
	}
	return facts, nil
}

func buildExtractionPrompt(userText string, summary []string, doctors []models.Doctor) string {
	var context string
	if len(summary) > 0 {
		from := len(summary) - summaryWindow
		if from < 0 {
			from = 0
		}
		context = strings.Join(summary[from:], "\n")
	}

	var doctorList []string
	for _, d := range doctors {
		entry := d.Key + " (" + d.Name
		if d.Specialization != "" {
			entry += ", " + d.Specialization
		}
		entry += ")"
		doctorList = append(doctorList, entry)
	}

	today := time.Now().Format("2006-01-02")
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	return "Extract from conversation. Output JSON only. Today is " + today + ".\n" +
		"intent: book|cancel|reschedule|check_appointments|ask_availability|list_doctors|none\n" +
		"is_general_question: true if the user's message is clearly NOT about appointments — e.g. weather, greetings, farewell, thanks, general knowledge. false if about booking, cancelling, rescheduling, slots, doctors, or appointments.\n" +
		"check_appointments: 'do I have an appointment', 'what are my appointments'.\n" +
		"ask_availability: 'what dates/times available', 'available slots' — NOT when user asks to list doctors.\n" +
		"list_doctors: 'list doctor names', 'what doctors are available'.\n" +
		"doctorKey: map the user's doctor name to one of these keys: [" + strings.Join(doctorList, ", ") + "]. Use context to resolve variants.\n" +
		"date: YYYY-MM-DD. Use today=" + today + ", tomorrow=" + tomorrow + ". If the assistant offered slots and the user accepts a time, use that date.\n" +
		"time: 12:00 PM, 12:30 PM, 01:00 PM etc. For '12 p.m.' use 12:00 PM. For '6 to 7' use 06:00 PM.\n" +
		"patientName, patientPhone: from user if given.\n" +
		"If the user only says a time, keep doctor AND date from recent context.\n\n" +
		"Conversation:\n" + context + "\n\nLast user: " + userText + "\n\nJSON:"
}
