package models

// Slot states. A slot moves AVAILABLE -> BOOKED when claimed and back to
// AVAILABLE when the appointment holding it is cancelled or rescheduled away.
const (
	SlotAvailable = "AVAILABLE"
	SlotBooked    = "BOOKED"
)

// AppointmentSlot is a single doctor/date/time unit of capacity.
type AppointmentSlot struct {
	ID           string `bson:"id" json:"id"`
	DoctorKey    string `bson:"doctorKey" json:"doctorKey"`
	Date         string `bson:"date" json:"date"`           // "YYYY-MM-DD"
	StartTime    string `bson:"startTime" json:"startTime"` // "H:MM AM/PM"
	StartMinutes int    `bson:"startMinutes" json:"startMinutes"` // minutes from midnight, for ordering
	Status       string `bson:"status" json:"status"`
}

// SlotRef identifies a slot by its natural key.
type SlotRef struct {
	DoctorKey string `json:"doctorKey"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}
