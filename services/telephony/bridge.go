package telephony

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"receptionist/utils"

	"go.uber.org/zap"
)

// Bridge is the outbound side of call control: speaking a turn into a live
// call and hanging up.
type Bridge interface {
	// Speak plays text into the call. With endCall the call is terminated
	// after the text; otherwise the media stream is reconnected.
	Speak(ctx context.Context, callSid, text string, endCall bool) error
	Hangup(ctx context.Context, callSid string) error
}

// TwilioBridge drives live calls through the Twilio call-update REST API.
type TwilioBridge struct {
	accountSID string
	authToken  string
	voice      string
	streamURL  string // wss endpoint for reconnecting the media stream
	httpClient *http.Client
}

func NewTwilioBridge(accountSID, authToken, voice, streamURL string) *TwilioBridge {
	return &TwilioBridge{
		accountSID: accountSID,
		authToken:  authToken,
		voice:      voice,
		streamURL:  streamURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// StreamURL is the websocket endpoint calls are bridged to.
func (b *TwilioBridge) StreamURL() string { return b.streamURL }

func (b *TwilioBridge) Speak(ctx context.Context, callSid, text string, endCall bool) error {
	doc, err := SpeakTwiML(b.voice, text, b.streamURL, endCall).Render()
	if err != nil {
		return fmt.Errorf("render twiml: %w", err)
	}
	return b.updateCall(ctx, callSid, url.Values{"Twiml": {doc}})
}

func (b *TwilioBridge) Hangup(ctx context.Context, callSid string) error {
	return b.updateCall(ctx, callSid, url.Values{"Status": {"completed"}})
}

func (b *TwilioBridge) updateCall(ctx context.Context, callSid string, form url.Values) error {
	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Calls/%s.json",
		b.accountSID, callSid)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(b.accountSID, b.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call update request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		utils.GetLogger().Error("call update rejected",
			zap.String("callSid", callSid),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return fmt.Errorf("call update returned %d", resp.StatusCode)
	}
	return nil
}
