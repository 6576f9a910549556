package clinicRepo

import (
	"context"
	"fmt"

	"receptionist/database"
	"receptionist/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const dbName = "receptionist"

// MongoClinicRepo implements Repository on MongoDB collections.
type MongoClinicRepo struct {
	doctorColl      *mongo.Collection
	slotColl        *mongo.Collection
	appointmentColl *mongo.Collection
}

// NewMongoClinicRepo builds a repository over the global Mongo client.
func NewMongoClinicRepo() *MongoClinicRepo {
	db := database.MongoClient.Database(dbName)
	return &MongoClinicRepo{
		doctorColl:      db.Collection("doctors"),
		slotColl:        db.Collection("appointment_slots"),
		appointmentColl: db.Collection("appointments"),
	}
}

func (r *MongoClinicRepo) GetActiveDoctors(ctx context.Context) ([]models.Doctor, error) {
	cur, err := r.doctorColl.Find(ctx, bson.M{"active": true},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find doctors failed: %w", err)
	}
	defer cur.Close(ctx)

	var doctors []models.Doctor
	if err := cur.All(ctx, &doctors); err != nil {
		return nil, fmt.Errorf("decode doctors failed: %w", err)
	}
	return doctors, nil
}

func (r *MongoClinicRepo) GetDoctorByKey(ctx context.Context, key string) (*models.Doctor, error) {
	var doc models.Doctor
	err := r.doctorColl.FindOne(ctx, bson.M{"key": key, "active": true}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find doctor %q failed: %w", key, err)
	}
	return &doc, nil
}

func (r *MongoClinicRepo) AvailableSlotsByDoctor(ctx context.Context, doctorKey, fromDate, toDate string) ([]models.AppointmentSlot, error) {
	filter := bson.M{
		"doctorKey": doctorKey,
		"status":    models.SlotAvailable,
		"date":      bson.M{"$gte": fromDate, "$lte": toDate},
	}
	cur, err := r.slotColl.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "startMinutes", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find slots failed: %w", err)
	}
	defer cur.Close(ctx)

	var slots []models.AppointmentSlot
	if err := cur.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("decode slots failed: %w", err)
	}
	return slots, nil
}

func (r *MongoClinicRepo) FindSlot(ctx context.Context, ref models.SlotRef) (*models.AppointmentSlot, error) {
	var slot models.AppointmentSlot
	err := r.slotColl.FindOne(ctx, bson.M{
		"doctorKey": ref.DoctorKey,
		"date":      ref.Date,
		"startTime": ref.Time,
	}).Decode(&slot)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find slot failed: %w", err)
	}
	return &slot, nil
}

// ClaimSlot does the AVAILABLE -> BOOKED transition as one conditional update;
// a concurrent claimant observes MatchedCount == 0 and loses.
func (r *MongoClinicRepo) ClaimSlot(ctx context.Context, slotID string) (bool, error) {
	res, err := r.slotColl.UpdateOne(ctx,
		bson.M{"id": slotID, "status": models.SlotAvailable},
		bson.M{"$set": bson.M{"status": models.SlotBooked}})
	if err != nil {
		return false, fmt.Errorf("claim slot %q failed: %w", slotID, err)
	}
	return res.MatchedCount == 1, nil
}

func (r *MongoClinicRepo) ReleaseSlot(ctx context.Context, slotID string) error {
	res, err := r.slotColl.UpdateOne(ctx,
		bson.M{"id": slotID, "status": models.SlotBooked},
		bson.M{"$set": bson.M{"status": models.SlotAvailable}})
	if err != nil {
		return fmt.Errorf("release slot %q failed: %w", slotID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoClinicRepo) InsertAppointment(ctx context.Context, appt *models.Appointment) error {
	if _, err := r.appointmentColl.InsertOne(ctx, appt); err != nil {
		return fmt.Errorf("insert appointment failed: %w", err)
	}
	return nil
}

func (r *MongoClinicRepo) UpdateAppointmentStatus(ctx context.Context, apptID, status string) error {
	res, err := r.appointmentColl.UpdateOne(ctx,
		bson.M{"id": apptID},
		bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("update appointment %q failed: %w", apptID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoClinicRepo) MoveAppointment(ctx context.Context, apptID, doctorKey string, slot models.AppointmentSlot) error {
	res, err := r.appointmentColl.UpdateOne(ctx,
		bson.M{"id": apptID},
		bson.M{"$set": bson.M{
			"doctorKey": doctorKey,
			"slotId":    slot.ID,
			"date":      slot.Date,
			"time":      slot.StartTime,
		}})
	if err != nil {
		return fmt.Errorf("move appointment %q failed: %w", apptID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoClinicRepo) GetAppointment(ctx context.Context, apptID string) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.appointmentColl.FindOne(ctx, bson.M{"id": apptID}).Decode(&appt)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find appointment %q failed: %w", apptID, err)
	}
	return &appt, nil
}

func (r *MongoClinicRepo) ActiveAppointmentByCaller(ctx context.Context, callerPhone string) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.appointmentColl.FindOne(ctx,
		bson.M{"callerPhone": callerPhone, "status": models.AppointmentConfirmed},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})).Decode(&appt)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find active appointment failed: %w", err)
	}
	return &appt, nil
}
