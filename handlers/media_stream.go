package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"receptionist/models"
	"receptionist/services/session"
	"receptionist/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The telephony provider connects server-to-server with no Origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewMediaStreamHandler accepts the telephony media websocket and feeds its
// frames through the segmenter. Events arrive in order: start, media*, stop;
// anything unrecognized is ignored.
func NewMediaStreamHandler(registry *session.Registry, segmenter *session.Segmenter, dispatcher *session.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			utils.GetLogger().Error("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		var streamSid string
		defer func() {
			if streamSid != "" {
				registry.Close(streamSid)
			}
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					utils.GetLogger().Warn("media stream read error",
						zap.String("streamSid", streamSid), zap.Error(err))
				}
				return
			}

			var event models.StreamEvent
			if err := json.Unmarshal(raw, &event); err != nil {
				utils.GetLogger().Debug("unparseable stream message skipped",
					zap.String("streamSid", streamSid))
				continue
			}

			switch event.Event {
			case models.StreamEventStart:
				if event.Start == nil {
					continue
				}
				streamSid = event.StreamSid
				from := event.Start.CustomParameters["from"]
				registry.Open(event.StreamSid, event.Start.CallSid, from)

			case models.StreamEventMedia:
				if event.Media == nil {
					continue
				}
				s := registry.Get(event.StreamSid)
				if s == nil {
					continue
				}
				frame, err := base64.StdEncoding.DecodeString(event.Media.Payload)
				if err != nil {
					continue
				}
				if utterance, _ := segmenter.Ingest(s, frame); utterance != nil {
					dispatcher.Submit(s, utterance)
				}

			case models.StreamEventStop:
				registry.Close(event.StreamSid)
				return
			}
		}
	}
}
