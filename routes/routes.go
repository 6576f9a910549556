package routes

import (
	"net/http"
	"time"

	"receptionist/handlers"
	"receptionist/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterTelephonyRoutes registers the inbound-call webhook and the media
// websocket the provider bridges call audio onto.
func RegisterTelephonyRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/voice", hb.VoiceWebhookHandler)
	r.GET("/media-stream", hb.MediaStreamHandler)
}

// RegisterClinicRoutes registers read-only clinic endpoints.
func RegisterClinicRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/clinic")
	{
		api.GET("/doctors", hb.ListDoctorsHandler)
		api.GET("/doctors/:doctorKey/availability", hb.AvailabilityHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.Mongo || !status.Redis {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"mongo": status.Mongo, "redis": status.Redis})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterTelephonyRoutes(r, hb)
	RegisterClinicRoutes(r, hb)
	RegisterHealthRoute(r)
}
