package booking

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/evcare-vn/evcare_backend/internal/model"
	"github.com/evcare-vn/evcare_backend/internal/service/inventory"
)

var errFakeNotFound = errors.New("not found")

type fakeAppointmentStore struct {
	appts map[primitive.ObjectID]*model.Appointment
}

func newFakeAppointmentStore() *fakeAppointmentStore {
	return &fakeAppointmentStore{appts: map[primitive.ObjectID]*model.Appointment{}}
}

func (f *fakeAppointmentStore) Insert(_ context.Context, a *model.Appointment) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	cp := *a
	f.appts[a.ID] = &cp
	return nil
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

func (f *fakeAppointmentStore) ListByCenterAndDate(_ context.Context, centerID primitive.ObjectID, day time.Time, statuses []model.AppointmentStatus) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range f.appts {
		if a.ServiceCenterID != centerID {
			continue
		}
		ay, am, ad := a.AppointmentDate.Date()
		dy, dm, dd := day.Date()
		if ay != dy || am != dm || ad != dd {
			continue
		}
		match := len(statuses) == 0
		for _, s := range statuses {
			if a.Status == s {
				match = true
				break
			}
		}
		if match {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAppointmentStore) ListByCustomer(_ context.Context, customerID primitive.ObjectID, status model.AppointmentStatus, _ int64) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range f.appts {
		if a.CustomerID != customerID {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

type fakeCatalogStore struct {
	centers  map[primitive.ObjectID]*model.ServiceCenter
	types    map[primitive.ObjectID]*model.ServiceType
	packages map[primitive.ObjectID]*model.ServicePackage
	vehicles map[primitive.ObjectID]*model.Vehicle
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		centers:  map[primitive.ObjectID]*model.ServiceCenter{},
		types:    map[primitive.ObjectID]*model.ServiceType{},
		packages: map[primitive.ObjectID]*model.ServicePackage{},
		vehicles: map[primitive.ObjectID]*model.Vehicle{},
	}
}

func (f *fakeCatalogStore) GetServiceCenter(_ context.Context, id primitive.ObjectID) (*model.ServiceCenter, error) {
	if c, ok := f.centers[id]; ok {
		return c, nil
	}
	return nil, errFakeNotFound
}

func (f *fakeCatalogStore) GetServiceType(_ context.Context, id primitive.ObjectID) (*model.ServiceType, error) {
	if t, ok := f.types[id]; ok {
		return t, nil
	}
	return nil, errFakeNotFound
}

func (f *fakeCatalogStore) GetServicePackage(_ context.Context, id primitive.ObjectID) (*model.ServicePackage, error) {
	if p, ok := f.packages[id]; ok {
		return p, nil
	}
	return nil, errFakeNotFound
}

func (f *fakeCatalogStore) GetVehicle(_ context.Context, id primitive.ObjectID) (*model.Vehicle, error) {
	if v, ok := f.vehicles[id]; ok {
		return v, nil
	}
	return nil, errFakeNotFound
}

type fakePackageStore struct {
	packages map[primitive.ObjectID]*model.CustomerPackage
}

func newFakePackageStore() *fakePackageStore {
	return &fakePackageStore{packages: map[primitive.ObjectID]*model.CustomerPackage{}}
}

func (f *fakePackageStore) Insert(_ context.Context, p *model.CustomerPackage) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	cp := *p
	f.packages[p.ID] = &cp
	return nil
}

func (f *fakePackageStore) GetByID(_ context.Context, id primitive.ObjectID) (*model.CustomerPackage, error) {
	if p, ok := f.packages[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, errFakeNotFound
}

func (f *fakePackageStore) Update(_ context.Context, p *model.CustomerPackage) error {
	if _, ok := f.packages[p.ID]; !ok {
		return errFakeNotFound
	}
	cp := *p
	f.packages[p.ID] = &cp
	return nil
}

func (f *fakePackageStore) FindActiveByCustomerAndPackage(_ context.Context, customerID, servicePackageID primitive.ObjectID) (*model.CustomerPackage, error) {
	for _, p := range f.packages {
		if p.CustomerID == customerID && p.ServicePackageID == servicePackageID && p.Status == model.PackageActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errFakeNotFound
}

type fakePaymentLinker struct {
	fail    bool
	created []*model.Payment
}

func (f *fakePaymentLinker) CreateForAppointment(_ context.Context, appt *model.Appointment, amount int64, description string) (*model.Payment, error) {
	if f.fail {
		return nil, errors.New("gateway unreachable")
	}
	p := &model.Payment{
		ID:            primitive.NewObjectID(),
		AppointmentID: appt.ID,
		CustomerID:    appt.CustomerID,
		Amount:        amount,
		Description:   description,
		Status:        model.PaymentPending,
	}
	f.created = append(f.created, p)
	return p, nil
}

type fakeInventoryReleaser struct {
	released []primitive.ObjectID
	noHold   bool
	fail     bool
}

func (f *fakeInventoryReleaser) ReleaseForAppointment(_ context.Context, appointmentID primitive.ObjectID) error {
	if f.fail {
		return errors.New("inventory unavailable")
	}
	if f.noHold {
		return inventory.ErrNoHold
	}
	f.released = append(f.released, appointmentID)
	return nil
}

type fakeNotifier struct {
	created, confirmed, cancelled, rescheduled int
}

func (f *fakeNotifier) BookingCreated(context.Context, *model.Appointment)     { f.created++ }
func (f *fakeNotifier) BookingConfirmed(context.Context, *model.Appointment)   { f.confirmed++ }
func (f *fakeNotifier) BookingCancelled(context.Context, *model.Appointment)   { f.cancelled++ }
func (f *fakeNotifier) BookingRescheduled(context.Context, *model.Appointment) { f.rescheduled++ }
