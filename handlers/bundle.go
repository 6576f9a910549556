package handlers

import (
	clinicRepo "receptionist/database/repository/clinic"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	ClinicRepo clinicRepo.Repository

	// Telephony endpoints
	VoiceWebhookHandler gin.HandlerFunc
	MediaStreamHandler  gin.HandlerFunc

	// Clinic endpoints
	ListDoctorsHandler  gin.HandlerFunc
	AvailabilityHandler gin.HandlerFunc
}
