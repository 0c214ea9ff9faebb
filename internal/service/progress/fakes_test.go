package progress

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/evcare-vn/evcare_backend/internal/model"
)

var errFakeNotFound = errors.New("not found")

type fakeAppointmentStore struct {
	appts map[primitive.ObjectID]*model.Appointment
}

func newFakeAppointmentStore() *fakeAppointmentStore {
	return &fakeAppointmentStore{appts: map[primitive.ObjectID]*model.Appointment{}}
}

func (f *fakeAppointmentStore) put(a *model.Appointment) *model.Appointment {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	cp := *a
	f.appts[a.ID] = &cp
	return &cp
}

func (f *fakeAppointmentStore) GetByID(_ context.Context, id primitive.ObjectID) (*model.Appointment, error) {
	a, ok := f.appts[id]
	if !ok {
		return nil, errFakeNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAppointmentStore) Update(_ context.Context, a *model.Appointment) error {
	if _, ok := f.appts[a.ID]; !ok {
		return errFakeNotFound
	}
	cp := *a
	f.appts[a.ID] = &cp
	return nil
}

type fakeProgressStore struct {
	records map[primitive.ObjectID]*model.WorkProgress // by appointment id
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{records: map[primitive.ObjectID]*model.WorkProgress{}}
}

func (f *fakeProgressStore) Insert(_ context.Context, w *model.WorkProgress) error {
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	cp := *w
	f.records[w.AppointmentID] = &cp
	return nil
}

func (f *fakeProgressStore) GetByAppointment(_ context.Context, appointmentID primitive.ObjectID) (*model.WorkProgress, error) {
	w, ok := f.records[appointmentID]
	if !ok {
		return nil, errFakeNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeProgressStore) Update(_ context.Context, w *model.WorkProgress) error {
	if _, ok := f.records[w.AppointmentID]; !ok {
		return errFakeNotFound
	}
	cp := *w
	f.records[w.AppointmentID] = &cp
	return nil
}

type fakeScheduleStore struct {
	schedules map[primitive.ObjectID]*model.TechnicianSchedule // by technician id
	attached  int
	released  int
}

func newFakeScheduleStore() *fakeScheduleStore {
	return &fakeScheduleStore{schedules: map[primitive.ObjectID]*model.TechnicianSchedule{}}
}

func (f *fakeScheduleStore) GetByTechnicianAndDate(_ context.Context, technicianID primitive.ObjectID, _ time.Time) (*model.TechnicianSchedule, error) {
	s, ok := f.schedules[technicianID]
	if !ok {
		return nil, errFakeNotFound
	}
	return s, nil
}

func (f *fakeScheduleStore) AttachAppointment(_ context.Context, scheduleID, appointmentID primitive.ObjectID) error {
	for _, s := range f.schedules {
		if s.ID != scheduleID {
			continue
		}
		s.AppointmentIDs = append(s.AppointmentIDs, appointmentID)
		s.Availability = model.TechnicianBusy
		f.attached++
		return nil
	}
	return errFakeNotFound
}

func (f *fakeScheduleStore) ReleaseAppointment(_ context.Context, scheduleID, appointmentID primitive.ObjectID) error {
	for _, s := range f.schedules {
		if s.ID != scheduleID {
			continue
		}
		kept := s.AppointmentIDs[:0]
		for _, id := range s.AppointmentIDs {
			if id != appointmentID {
				kept = append(kept, id)
			}
		}
		s.AppointmentIDs = kept
		if len(kept) == 0 {
			s.Availability = model.TechnicianAvailable
		}
		f.released++
		return nil
	}
	return errFakeNotFound
}

type fakeInvoiceStore struct {
	invoices []*model.Invoice
	fail     bool
}

func (f *fakeInvoiceStore) Insert(_ context.Context, inv *model.Invoice) error {
	if f.fail {
		return errors.New("invoice store down")
	}
	cp := *inv
	f.invoices = append(f.invoices, &cp)
	return nil
}

func (f *fakeInvoiceStore) ListByCustomer(_ context.Context, customerID primitive.ObjectID) ([]*model.Invoice, error) {
	var out []*model.Invoice
	for _, inv := range f.invoices {
		if inv.CustomerID == customerID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakePartCatalog resolves every part id unless it is listed as missing.
type fakePartCatalog struct {
	missing map[primitive.ObjectID]bool
}

func (f *fakePartCatalog) GetPart(_ context.Context, id primitive.ObjectID) (*model.Part, error) {
	if f.missing[id] {
		return nil, errFakeNotFound
	}
	return &model.Part{ID: id}, nil
}

type fakeInventoryReserver struct {
	holds    []*model.InventoryHold
	consumed []primitive.ObjectID
	fail     bool
}

func (f *fakeInventoryReserver) HoldForQuote(_ context.Context, appt *model.Appointment) (*model.InventoryHold, error) {
	if f.fail {
		return nil, errors.New("inventory unavailable")
	}
	h := &model.InventoryHold{
		ID:            primitive.NewObjectID(),
		AppointmentID: appt.ID,
		Status:        "held",
		Source:        "approved_quote",
	}
	f.holds = append(f.holds, h)
	return h, nil
}

func (f *fakeInventoryReserver) ConsumeForAppointment(_ context.Context, appointmentID primitive.ObjectID) error {
	f.consumed = append(f.consumed, appointmentID)
	return nil
}

type fakeNotifier struct {
	quotes    int
	completed int
}

func (f *fakeNotifier) QuoteProvided(context.Context, *model.Appointment) { f.quotes++ }
func (f *fakeNotifier) MaintenanceCompleted(context.Context, *model.Appointment, *model.Invoice) {
	f.completed++
}
