package models

// StreamEvent is one inbound media-stream message. Exactly three event types
// are defined per stream, arriving in order: start, media, stop. Anything
// else is ignored.
type StreamEvent struct {
	Event     string       `json:"event"`
	StreamSid string       `json:"streamSid"`
	Start     *StreamStart `json:"start,omitempty"`
	Media     *StreamMedia `json:"media,omitempty"`
}

// StreamStart carries the telephony call identity.
type StreamStart struct {
	CallSid          string            `json:"callSid"`
	CustomParameters map[string]string `json:"customParameters,omitempty"`
}

// StreamMedia carries one base64-encoded audio frame.
type StreamMedia struct {
	Payload string `json:"payload"`
}

// Stream event names.
const (
	StreamEventStart = "start"
	StreamEventMedia = "media"
	StreamEventStop  = "stop"
)
