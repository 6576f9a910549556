package pipeline

import (
	"context"
	"strings"
	"time"

	"receptionist/models"
	"receptionist/services/conversation"
	"receptionist/services/flow"
	"receptionist/services/nlu"
	"receptionist/services/respond"
	"receptionist/services/session"
	"receptionist/services/telephony"
	"receptionist/services/transcribe"
	"receptionist/utils"

	"go.uber.org/zap"
)

// Pipeline processes one complete utterance end to end: transcribe, run the
// booking flow, fall back to the open-ended responder, render, speak. One
// instance serves all calls; per-call state lives in the session and the
// flow engine's pending store.
type Pipeline struct {
	transcriber transcribe.Service
	store       conversation.Store
	engine      *flow.Engine
	replier     nlu.Replier
	bridge      telephony.Bridge

	// resubmit requeues audio that buffered up while this utterance was in
	// flight. Set by the owner of the worker pool.
	resubmit func(*session.CallSession, []byte)
}

func New(transcriber transcribe.Service, store conversation.Store, engine *flow.Engine, replier nlu.Replier, bridge telephony.Bridge) *Pipeline {
	return &Pipeline{
		transcriber: transcriber,
		store:       store,
		engine:      engine,
		replier:     replier,
		bridge:      bridge,
	}
}

// SetResubmit wires the dispatcher back in after construction.
func (p *Pipeline) SetResubmit(fn func(*session.CallSession, []byte)) {
	p.resubmit = fn
}

// HandleUtterance is the worker-pool entry point. The session's single-flight
// gate is held on entry and released here on every path.
func (p *Pipeline) HandleUtterance(ctx context.Context, s *session.CallSession, audio []byte) {
	defer func() {
		if leftover, again := s.FinishProcessing(); again && p.resubmit != nil {
			p.resubmit(s, leftover)
		}
	}()

	if s.Closed() {
		return
	}

	text := strings.TrimSpace(p.transcriber.Transcribe(ctx, audio))
	if text == "" {
		p.escalateQuiet(ctx, s, s.NoteSilentUtterance())
		return
	}

	utils.GetLogger().Info("utterance transcribed",
		zap.String("callSid", s.CallSid), zap.String("text", text))

	if err := p.store.Append(ctx, models.ChatMessage{
		CallID: s.CallSid, From: s.FromNumber, Role: models.RoleUser,
		Text: text, CreatedAt: time.Now(),
	}); err != nil {
		utils.GetLogger().Warn("transcript append failed", zap.Error(err))
	}

	summary, err := p.store.Summary(ctx, s.CallSid)
	if err != nil {
		utils.GetLogger().Warn("transcript summary failed", zap.Error(err))
		summary = nil
	}

	outcome := p.engine.Process(ctx, s.CallSid, s.FromNumber, text, summary, lastAssistantTurn(ctx, p.store, s.CallSid))

	var reply string
	switch outcome.Kind {
	case models.OutcomeClarify:
		if stage := s.NoteUnclearUtterance(); stage > 0 {
			p.escalateQuiet(ctx, s, stage)
			return
		}
		reply = respond.Render(outcome)
	case models.OutcomeNone:
		s.NoteClearUtterance()
		reply = p.fallbackReply(ctx, s.CallSid)
	default:
		s.NoteClearUtterance()
		reply = respond.Render(outcome)
	}

	if reply == "" {
		reply = respond.Render(models.OutcomeOf(models.OutcomeClarify))
	}

	if err := p.store.Append(ctx, models.ChatMessage{
		CallID: s.CallSid, Role: models.RoleAssistant,
		Text: reply, CreatedAt: time.Now(),
	}); err != nil {
		utils.GetLogger().Warn("transcript append failed", zap.Error(err))
	}

	if s.Closed() {
		return
	}
	if err := p.bridge.Speak(ctx, s.CallSid, reply, outcome.EndCall); err != nil {
		utils.GetLogger().Error("speak failed", zap.String("callSid", s.CallSid), zap.Error(err))
	}
	if outcome.EndCall {
		p.engine.Pending().Clear(s.CallSid)
	}
}

// escalateQuiet handles runs of silent or unintelligible turns: first a
// gentle prompt, then a goodbye that ends the call.
func (p *Pipeline) escalateQuiet(ctx context.Context, s *session.CallSession, stage int) {
	if stage == 0 || s.Closed() {
		return
	}
	if stage == 1 {
		text := respond.Render(models.OutcomeMsg(models.MsgStillThere))
		if err := p.bridge.Speak(ctx, s.CallSid, text, false); err != nil {
			utils.GetLogger().Error("speak failed", zap.String("callSid", s.CallSid), zap.Error(err))
		}
		return
	}
	text := respond.Render(models.OutcomeOf(models.OutcomeGoodbye))
	if err := p.bridge.Speak(ctx, s.CallSid, text, true); err != nil {
		utils.GetLogger().Error("speak failed", zap.String("callSid", s.CallSid), zap.Error(err))
	}
	p.engine.Pending().Clear(s.CallSid)
}

// fallbackReply asks the open-ended responder for anything the flow engine
// declined to handle.
func (p *Pipeline) fallbackReply(ctx context.Context, callID string) string {
	history, err := p.store.History(ctx, callID)
	if err != nil {
		utils.GetLogger().Warn("history lookup failed", zap.Error(err))
		return ""
	}
	reply, err := p.replier.Reply(ctx, callID, history)
	if err != nil {
		utils.GetLogger().Warn("fallback reply failed", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(reply)
}

func lastAssistantTurn(ctx context.Context, store conversation.Store, callID string) string {
	history, err := store.History(ctx, callID)
	if err != nil {
		return ""
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleAssistant {
			return history[i].Text
		}
	}
	return ""
}
