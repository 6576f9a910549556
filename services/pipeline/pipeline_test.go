package pipeline

import (
	"context"
	"testing"

	clinicRepo "receptionist/database/repository/clinic"
	"receptionist/models"
	"receptionist/services/allocator"
	"receptionist/services/conversation"
	"receptionist/services/flow"
	"receptionist/services/session"
)

type fakeTranscriber struct{ text string }

func (f *fakeTranscriber) Transcribe(ctx context.Context, mulaw []byte) string { return f.text }

type fakeExtractor struct{ facts models.ExtractedFacts }

func (f *fakeExtractor) Extract(ctx context.Context, userText string, summary []string, doctors []models.Doctor) (models.ExtractedFacts, error) {
	return f.facts, nil
}

type fakeReplier struct{ reply string }

func (f *fakeReplier) Reply(ctx context.Context, callID string, history []models.ChatMessage) (string, error) {
	return f.reply, nil
}

type spokenTurn struct {
	text    string
	endCall bool
}

type fakeBridge struct{ turns []spokenTurn }

func (f *fakeBridge) Speak(ctx context.Context, callSid, text string, endCall bool) error {
	f.turns = append(f.turns, spokenTurn{text: text, endCall: endCall})
	return nil
}

func (f *fakeBridge) Hangup(ctx context.Context, callSid string) error { return nil }

func newTestPipeline(transcript string) (*Pipeline, *fakeBridge, *session.CallSession) {
	repo := clinicRepo.NewMemoryClinicRepo()
	engine := flow.NewEngine(repo, allocator.New(repo), &fakeExtractor{facts: models.ExtractedFacts{Intent: "none"}})
	bridge := &fakeBridge{}
	p := New(&fakeTranscriber{text: transcript}, conversation.NewMemoryStore(), engine, &fakeReplier{reply: "We open at nine."}, bridge)

	registry := session.NewRegistry(8000)
	s := registry.Open("MZ1", "CA1", "+15550001111")
	return p, bridge, s
}

func TestPipelineFallsBackToResponder(t *testing.T) {
	p, bridge, s := newTestPipeline("what time do you open")

	p.HandleUtterance(context.Background(), s, []byte{0x00})

	if len(bridge.turns) != 1 {
		t.Fatalf("spoke %d turns, want 1", len(bridge.turns))
	}
	if bridge.turns[0].text != "We open at nine." {
		t.Fatalf("spoke %q, want the responder's answer", bridge.turns[0].text)
	}
	if bridge.turns[0].endCall {
		t.Fatal("an ordinary answer must not end the call")
	}
}

func TestPipelineSilenceEscalation(t *testing.T) {
	p, bridge, s := newTestPipeline("")
	ctx := context.Background()

	// First empty transcription: stay quiet.
	p.HandleUtterance(ctx, s, []byte{0xFF})
	if len(bridge.turns) != 0 {
		t.Fatalf("spoke %q after one silent turn", bridge.turns[0].text)
	}

	// Second: prompt the caller.
	p.HandleUtterance(ctx, s, []byte{0xFF})
	if len(bridge.turns) != 1 || bridge.turns[0].endCall {
		t.Fatalf("expected a gentle prompt, got %+v", bridge.turns)
	}

	// Third and fourth: give up and end the call.
	p.HandleUtterance(ctx, s, []byte{0xFF})
	p.HandleUtterance(ctx, s, []byte{0xFF})
	last := bridge.turns[len(bridge.turns)-1]
	if !last.endCall {
		t.Fatalf("persistent silence must end the call, got %+v", bridge.turns)
	}
}

func TestPipelineDiscardsClosedSessions(t *testing.T) {
	p, bridge, _ := newTestPipeline("hello")

	// The stream ended while the utterance sat in the queue.
	reg := session.NewRegistry(8000)
	ended := reg.Open("MZ9", "CA9", "+15550009999")
	reg.Close("MZ9")

	p.HandleUtterance(context.Background(), ended, []byte{0x00})
	if len(bridge.turns) != 0 {
		t.Fatal("spoke into a closed call")
	}
}
