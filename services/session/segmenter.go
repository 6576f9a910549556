package session

import (
	"time"

	"receptionist/utils"

	"go.uber.org/zap"
)

// silentAmplitude is the mean absolute mu-law deviation below which a frame
// counts as silence.
const silentAmplitude = 8

// SegmenterConfig holds the utterance boundary knobs.
type SegmenterConfig struct {
	// SilenceFrames is the run of consecutive silent frames that closes an
	// utterance.
	SilenceFrames int
	// MinUtteranceBytes is the smallest buffer worth transcribing; anything
	// shorter is noise and keeps accumulating.
	MinUtteranceBytes int
	// MaxBufferBytes caps the buffer. Overflow is truncated, never dispatched:
	// an utterance only ever ends on silence.
	MaxBufferBytes int
}

// Segmenter turns a raw mu-law frame stream into discrete utterances.
type Segmenter struct {
	cfg SegmenterConfig
}

func NewSegmenter(cfg SegmenterConfig) *Segmenter {
	return &Segmenter{cfg: cfg}
}

// Ingest appends one frame to the session and reports whether a complete
// utterance is ready. When it returns a non-nil utterance the session's
// single-flight gate has been taken; the caller must arrange for
// FinishProcessing once the pipeline is done with it.
func (g *Segmenter) Ingest(s *CallSession, frame []byte) (utterance []byte, fromNumber string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || len(frame) == 0 {
		return nil, ""
	}
	if time.Since(s.connectedAt) < warmupWindow {
		return nil, ""
	}

	if isSilentFrame(frame) {
		s.silenceRun++
	} else {
		s.silenceRun = 0
	}

	s.buffer = append(s.buffer, frame...)
	if len(s.buffer) > g.cfg.MaxBufferBytes {
		// Keep the most recent audio; the head of a rambling buffer is the
		// least likely to matter by the time silence finally arrives.
		over := len(s.buffer) - g.cfg.MaxBufferBytes
		s.buffer = s.buffer[over:]
		utils.GetLogger().Debug("utterance buffer capped",
			zap.String("streamSid", s.StreamSid), zap.Int("dropped", over))
	}

	if s.silenceRun < g.cfg.SilenceFrames || len(s.buffer) < g.cfg.MinUtteranceBytes {
		return nil, ""
	}
	if s.processing {
		return nil, ""
	}

	utterance = s.buffer
	s.buffer = nil
	s.silenceRun = 0
	s.processing = true
	return utterance, s.FromNumber
}

// isSilentFrame classifies a mu-law frame by mean absolute deviation from the
// 0xFF/0x7F silence bytes.
func isSilentFrame(frame []byte) bool {
	if len(frame) == 0 {
		return true
	}
	var total int
	for _, b := range frame {
		v := int(b&0x7F) ^ 0x7F
		total += v
	}
	return total/len(frame) < silentAmplitude
}
