package session

import (
	"sync"
	"time"

	"receptionist/utils"

	"go.uber.org/zap"
)

// warmupWindow skips the connection clicks and carrier noise at the head of a
// stream; frames inside it are dropped outright.
const warmupWindow = 250 * time.Millisecond

// CallSession is the per-stream audio state. All fields behind mu; the
// processing flag is the single-flight gate: at most one utterance of a call
// is in the pipeline at a time.
type CallSession struct {
	StreamSid  string
	CallSid    string
	FromNumber string

	mu           sync.Mutex
	buffer       []byte
	silenceRun   int
	processing   bool
	closed       bool
	unclearCount int
	silentCount  int
	connectedAt  time.Time

	// minUtteranceBytes mirrors the segmenter's dispatch minimum so leftover
	// audio handed back by FinishProcessing obeys the same floor.
	minUtteranceBytes int
}

// Registry tracks live call sessions keyed by stream id.
type Registry struct {
	mu                sync.RWMutex
	sessions          map[string]*CallSession
	minUtteranceBytes int
}

func NewRegistry(minUtteranceBytes int) *Registry {
	return &Registry{
		sessions:          make(map[string]*CallSession),
		minUtteranceBytes: minUtteranceBytes,
	}
}

// Open registers a new session for a started stream, replacing any stale
// entry under the same id.
func (r *Registry) Open(streamSid, callSid, fromNumber string) *CallSession {
	s := &CallSession{
		StreamSid:         streamSid,
		CallSid:           callSid,
		FromNumber:        fromNumber,
		connectedAt:       time.Now(),
		minUtteranceBytes: r.minUtteranceBytes,
	}
	r.mu.Lock()
	r.sessions[streamSid] = s
	r.mu.Unlock()
	utils.GetLogger().Info("call session opened",
		zap.String("streamSid", streamSid), zap.String("callSid", callSid))
	return s
}

func (r *Registry) Get(streamSid string) *CallSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[streamSid]
}

// Close marks the session closed and removes it. In-flight work observes the
// closed flag and discards its result.
func (r *Registry) Close(streamSid string) *CallSession {
	r.mu.Lock()
	s := r.sessions[streamSid]
	delete(r.sessions, streamSid)
	r.mu.Unlock()
	if s != nil {
		s.mu.Lock()
		s.closed = true
		s.buffer = nil
		s.mu.Unlock()
		utils.GetLogger().Info("call session closed", zap.String("streamSid", streamSid))
	}
	return s
}

// Closed reports whether the stream has ended.
func (s *CallSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// FinishProcessing releases the single-flight gate and hands back any audio
// that accumulated while the pipeline ran, so a complete utterance buffered
// during processing is not stranded until the next silence. Leftover below the
// utterance minimum stays in the buffer for the segmenter to keep growing; it
// is never handed to transcription on its own.
func (s *CallSession) FinishProcessing() (leftover []byte, redispatch bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = false
	if s.closed {
		s.buffer = nil
		return nil, false
	}
	if len(s.buffer) > 0 && len(s.buffer) >= s.minUtteranceBytes {
		leftover = s.buffer
		s.buffer = nil
		s.silenceRun = 0
		s.processing = true
		return leftover, true
	}
	return nil, false
}

// NoteSilentUtterance counts consecutive empty transcriptions and reports the
// escalation stage: 0 none, 1 prompt the caller, 2 give up and say goodbye.
func (s *CallSession) NoteSilentUtterance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silentCount++
	if s.silentCount >= 4 {
		return 2
	}
	if s.silentCount >= 2 {
		return 1
	}
	return 0
}

// NoteUnclearUtterance counts consecutive unclear turns with the same
// escalation stages as NoteSilentUtterance.
func (s *CallSession) NoteUnclearUtterance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unclearCount++
	if s.unclearCount >= 4 {
		return 2
	}
	if s.unclearCount >= 2 {
		return 1
	}
	return 0
}

// NoteClearUtterance resets both escalation counters.
func (s *CallSession) NoteClearUtterance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silentCount = 0
	s.unclearCount = 0
}
