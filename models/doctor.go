package models

// Doctor is a bookable practitioner.
type Doctor struct {
	ID             string `bson:"id" json:"id"`
	Key            string `bson:"key" json:"key"`   // stable lookup key, e.g. "dr-alan"
	Name           string `bson:"name" json:"name"` // spoken name, e.g. "Dr. Alan"
	Specialization string `bson:"specialization,omitempty" json:"specialization,omitempty"`
	Active         bool   `bson:"active" json:"active"`
}
