package models

import "time"

// Appointment statuses. Exactly one CONFIRMED appointment may reference a
// given slot at any time.
const (
	AppointmentConfirmed = "CONFIRMED"
	AppointmentCancelled = "CANCELLED"
)

// Appointment links a caller, a doctor and a slot.
type Appointment struct {
	ID           string    `bson:"id" json:"id"`
	CallerPhone  string    `bson:"callerPhone" json:"callerPhone"` // telephony-side caller id
	PatientName  string    `bson:"patientName" json:"patientName"`
	PatientPhone string    `bson:"patientPhone" json:"patientPhone"`
	DoctorKey    string    `bson:"doctorKey" json:"doctorKey"`
	SlotID       string    `bson:"slotId" json:"slotId"`
	Date         string    `bson:"date" json:"date"`
	Time         string    `bson:"time" json:"time"`
	Status       string    `bson:"status" json:"status"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}
