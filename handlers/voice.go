package handlers

import (
	"net/http"

	"receptionist/services/telephony"
	"receptionist/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultGreeting = "Hello! Thank you for calling the clinic. How can I help you today?"

// NewVoiceWebhookHandler answers the inbound-call webhook with TwiML that
// greets the caller and bridges the call audio onto the media websocket.
func NewVoiceWebhookHandler(voice, streamURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		callSid := c.PostForm("CallSid")
		from := c.PostForm("From")
		utils.GetLogger().Info("inbound call",
			zap.String("callSid", callSid), zap.String("from", from))

		doc, err := telephony.AnswerTwiML(voice, defaultGreeting, streamURL).Render()
		if err != nil {
			utils.GetLogger().Error("twiml render failed", zap.Error(err))
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Data(http.StatusOK, "application/xml", []byte(doc))
	}
}
