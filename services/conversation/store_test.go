package conversation

import (
	"context"
	"testing"
	"time"

	"receptionist/models"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	msgs := []models.ChatMessage{
		{CallID: "CA1", Role: models.RoleUser, Text: "I want to book", CreatedAt: time.Now()},
		{CallID: "CA1", Role: models.RoleAssistant, Text: "Which doctor?", CreatedAt: time.Now()},
		{CallID: "CA2", Role: models.RoleUser, Text: "different call", CreatedAt: time.Now()},
	}
	for _, m := range msgs {
		if err := store.Append(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	history, err := store.History(ctx, "CA1")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("CA1 history has %d turns, want 2", len(history))
	}
	if history[0].Text != "I want to book" || history[1].Role != models.RoleAssistant {
		t.Fatalf("history out of order: %+v", history)
	}

	summary, err := store.Summary(ctx, "CA1")
	if err != nil {
		t.Fatal(err)
	}
	if len(summary) != 2 || summary[1] != "assistant: Which doctor?" {
		t.Fatalf("summary = %v", summary)
	}

	if err := store.Clear(ctx, "CA1"); err != nil {
		t.Fatal(err)
	}
	if history, _ := store.History(ctx, "CA1"); len(history) != 0 {
		t.Fatal("cleared call still has history")
	}
	if history, _ := store.History(ctx, "CA2"); len(history) != 1 {
		t.Fatal("clearing one call must not touch another")
	}
}
