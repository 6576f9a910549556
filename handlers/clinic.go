package handlers

import (
	"net/http"
	"time"

	clinicRepo "receptionist/database/repository/clinic"
	"receptionist/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewListDoctorsHandler returns the active roster.
func NewListDoctorsHandler(repo clinicRepo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		doctors, err := repo.GetActiveDoctors(c.Request.Context())
		if err != nil {
			utils.GetLogger().Error("doctor roster lookup failed", zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "failed to fetch doctors", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"doctors": doctors})
	}
}

// NewAvailabilityHandler returns AVAILABLE slots for one doctor over the next
// week, or a window given by from/to query params.
func NewAvailabilityHandler(repo clinicRepo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		doctorKey := c.Param("doctorKey")
		if doctorKey == "" {
			utils.JSONError(c, http.StatusBadRequest, "doctorKey is required", "")
			return
		}

		from := c.Query("from")
		to := c.Query("to")
		if from == "" {
			from = time.Now().Format("2006-01-02")
		}
		if to == "" {
			to = time.Now().AddDate(0, 0, 7).Format("2006-01-02")
		}

		slots, err := repo.AvailableSlotsByDoctor(c.Request.Context(), doctorKey, from, to)
		if err != nil {
			utils.GetLogger().Error("availability lookup failed",
				zap.String("doctor", doctorKey), zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "failed to fetch availability", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"doctorKey": doctorKey, "slots": slots})
	}
}
