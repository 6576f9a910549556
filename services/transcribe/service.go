package transcribe

import (
	"context"
	"strings"
	"time"

	"receptionist/utils"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Service converts one finished utterance into text. Empty text means
// "nothing usable" — blank input, missing credentials or exhausted retries
// all degrade to it; callers never see a transcription error.
type Service interface {
	Transcribe(ctx context.Context, mulawAudio []byte) string
}

// GoogleTranscriber implements Service on the Cloud Speech API.
type GoogleTranscriber struct {
	CredentialsFile string
	MaxAttempts     int
	Backoff         time.Duration // linear: attempt n waits n * Backoff
	Timeout         time.Duration // total budget per attempt
}

func NewGoogleTranscriber(credentialsFile string, maxAttempts int, backoff, timeout time.Duration) *GoogleTranscriber {
	return &GoogleTranscriber{
		CredentialsFile: credentialsFile,
		MaxAttempts:     maxAttempts,
		Backoff:         backoff,
		Timeout:         timeout,
	}
}

func (t *GoogleTranscriber) Transcribe(ctx context.Context, mulawAudio []byte) string {
	logger := utils.GetLogger()

	if len(mulawAudio) == 0 {
		return ""
	}
	if t.CredentialsFile == "" {
		logger.Error("GOOGLE_SERVICE_ACCOUNT_FILE not configured")
		return ""
	}

	pcm := DecodeMuLaw(mulawAudio)

	for attempt := 1; attempt <= t.MaxAttempts; attempt++ {
		text, err := t.recognize(ctx, pcm)
		if err == nil {
			return text
		}
		if !isTransient(err) {
			logger.Error("transcription failed", zap.Error(err))
			return ""
		}
		logger.Warn("transcription attempt failed",
			zap.Int("attempt", attempt), zap.Error(err))
		if attempt < t.MaxAttempts {
			select {
			case <-time.After(time.Duration(attempt) * t.Backoff):
			case <-ctx.Done():
				return ""
			}
		}
	}
	logger.Error("transcription retries exhausted")
	return ""
}

func (t *GoogleTranscriber) recognize(ctx context.Context, pcm []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	client, err := speech.NewClient(ctx, option.WithCredentialsFile(t.CredentialsFile))
	if err != nil {
		return "", err
	}
	defer client.Close()

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   8000,
			LanguageCode:      "en-US",
			AudioChannelCount: 1,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: pcm},
		},
	}

	resp, err := client.Recognize(ctx, req)
	if err != nil {
		return "", err
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		for _, alt := range result.Alternatives {
			transcript.WriteString(alt.Transcript + " ")
		}
	}
	return strings.TrimSpace(transcript.String()), nil
}

// isTransient separates connectivity hiccups (retry) from authentication and
// malformed-input failures (fail fast).
func isTransient(err error) bool {
	s, ok := status.FromError(err)
	if !ok {
		// Non-gRPC errors here are dial/connect problems.
		return true
	}
	switch s.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted, codes.Internal:
		return true
	default:
		return false
	}
}
