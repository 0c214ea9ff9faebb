package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/evcare-vn/evcare_backend/internal/model"
)

// ScheduleStore persists per-technician day schedules.
type ScheduleStore struct {
	coll *mongo.Collection
}

func NewScheduleStore(db *mongo.Database) *ScheduleStore {
	return &ScheduleStore{coll: db.Collection(CollSchedules)}
}

func (s *ScheduleStore) GetByTechnicianAndDate(ctx context.Context, technicianID primitive.ObjectID, day time.Time) (*model.TechnicianSchedule, error) {
	start, end := DayRange(day)
	var sched model.TechnicianSchedule
	err := s.coll.FindOne(ctx, bson.M{
		"technicianId": technicianID,
		"workDate":     bson.M{"$gte": start, "$lt": end},
	}).Decode(&sched)
	if err != nil {
		return nil, mapErr(err)
	}
	return &sched, nil
}

// AttachAppointment links an appointment to the technician's day and marks
// the technician busy.
func (s *ScheduleStore) AttachAppointment(ctx context.Context, scheduleID, appointmentID primitive.ObjectID) error {
	res, err := s.coll.UpdateByID(ctx, scheduleID, bson.M{
		"$addToSet": bson.M{"appointmentIds": appointmentID},
		"$set": bson.M{
			"availability": model.TechnicianBusy,
			"updatedAt":    time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ReleaseAppointment detaches a finished appointment and flips the technician
// back to available when no other appointment remains on the day.
func (s *ScheduleStore) ReleaseAppointment(ctx context.Context, scheduleID, appointmentID primitive.ObjectID) error {
	res, err := s.coll.UpdateByID(ctx, scheduleID, bson.M{
		"$pull": bson.M{"appointmentIds": appointmentID},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	var sched model.TechnicianSchedule
	if err := s.coll.FindOne(ctx, bson.M{"_id": scheduleID}).Decode(&sched); err != nil {
		return mapErr(err)
	}
	if len(sched.AppointmentIDs) == 0 && sched.Availability == model.TechnicianBusy {
		_, err = s.coll.UpdateByID(ctx, scheduleID, bson.M{
			"$set": bson.M{"availability": model.TechnicianAvailable, "updatedAt": time.Now()},
		})
	}
	return err
}
