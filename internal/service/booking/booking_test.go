package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/evcare-vn/evcare_backend/internal/model"
)

func seedCustomerVehicle(env *testEnv) (primitive.ObjectID, *model.Vehicle) {
	customerID := primitive.NewObjectID()
	vehicle := &model.Vehicle{
		ID:           primitive.NewObjectID(),
		CustomerID:   customerID,
		ModelName:    "VF 8",
		LicensePlate: "51K-123.45",
	}
	env.catalog.vehicles[vehicle.ID] = vehicle
	return customerID, vehicle
}

func TestCreate_ServiceTypeBooking(t *testing.T) {
	env := newTestEnv(t)
	center := newTestCenter()
	env.catalog.centers[center.ID] = center
	customerID, vehicle := seedCustomerVehicle(env)

	st := &model.ServiceType{
		ID:              primitive.NewObjectID(),
		Name:            "Bao duong dinh ky",
		BasePrice:       1_000_000,
		DurationMinutes: 90,
		IsActive:        true,
	}
	env.catalog.types[st.ID] = st

	res, err := env.svc.Create(context.Background(), CreateRequest{
		CustomerID:        customerID,
		VehicleID:         vehicle.ID,
		ServiceCenterID:   center.ID,
		ServiceTypeID:     &st.ID,
		AppointmentDate:   testMonday,
		StartTime:         "08:00",
		PaymentPreference: model.MethodEwallet,
	})
	require.NoError(t, err)

	appt := res.Appointment
	assert.Equal(t, model.StatusPendingConfirmation, appt.Status)
	assert.Equal(t, int64(1_000_000), appt.ServiceDetails.EstimatedCost)
	assert.Equal(t, "09:30", appt.EndTime)
	assert.Equal(t, 90, appt.DurationMinutes)

	// 20% deposit on the base price, collected online.
	assert.True(t, res.RequiresPayment)
	assert.Equal(t, int64(200_000), appt.Payment.Amount)
	assert.Equal(t, model.MethodEwallet, appt.Payment.Method)
	require.NotNil(t, res.Payment)
	assert.Equal(t, int64(200_000), res.Payment.Amount)
	assert.Equal(t, 1, env.notifier.created)
}

func TestCreate_InspectionOnly(t *testing.T) {
	env := newTestEnv(t)
	center := newTestCenter()
	env.catalog.centers[center.ID] = center
	customerID, vehicle := seedCustomerVehicle(env)

	res, err := env.svc.Create(context.Background(), CreateRequest{
		CustomerID:        customerID,
		VehicleID:         vehicle.ID,
		ServiceCenterID:   center.ID,
		IsInspectionOnly:  true,
		AppointmentDate:   testMonday,
		StartTime:         "09:00",
		PaymentPreference: model.MethodCash,
	})
	require.NoError(t, err)

	appt := res.Appointment
	assert.Zero(t, appt.ServiceDetails.EstimatedCost)
	assert.True(t, appt.ServiceDetails.IsInspectionOnly)
	assert.Equal(t, int64(200_000), appt.Payment.Amount, "flat inspection fee")
	assert.Equal(t, model.MethodCash, appt.Payment.Method)
	assert.True(t, res.RequiresPayment)
	// Cash upfront charges never call the gateway.
	assert.Nil(t, res.Payment)
	assert.Empty(t, env.payments.created)
}

func TestCreate_GatewayFailureDoesNotBlockBooking(t *testing.T) {
	env := newTestEnv(t)
	env.payments.fail = true
	center := newTestCenter()
	env.catalog.centers[center.ID] = center
	customerID, vehicle := seedCustomerVehicle(env)

	res, err := env.svc.Create(context.Background(), CreateRequest{
		CustomerID:        customerID,
		VehicleID:         vehicle.ID,
		ServiceCenterID:   center.ID,
		IsInspectionOnly:  true,
		AppointmentDate:   testMonday,
		StartTime:         "09:00",
		PaymentPreference: model.MethodEwallet,
	})
	require.NoError(t, err)

	// Booking committed despite the gateway outage.
	stored, err := env.appts.GetByID(context.Background(), res.Appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingConfirmation, stored.Status)
	assert.Nil(t, res.Payment)

	require.Len(t, res.SideEffects, 1)
	assert.Equal(t, "payment_link", res.SideEffects[0].Name)
	assert.False(t, res.SideEffects[0].OK())
}

func TestCreate_PackageConsumption(t *testing.T) {
	env := newTestEnv(t)
	center := newTestCenter()
	env.catalog.centers[center.ID] = center
	customerID, vehicle := seedCustomerVehicle(env)

	st := &model.ServiceType{ID: primitive.NewObjectID(), Name: "Kiem tra pin", BasePrice: 500_000, DurationMinutes: 60, IsActive: true}
	env.catalog.types[st.ID] = st

	catalogPkg := &model.ServicePackage{
		ID:                  primitive.NewObjectID(),
		Name:                "Goi cham soc pin",
		MaxServicesPerMonth: 2,
		DurationMonths:      6,
		IncludedServices:    []primitive.ObjectID{st.ID},
		IsActive:            true,
	}
	env.catalog.packages[catalogPkg.ID] = catalogPkg

	sub := &model.CustomerPackage{
		ID:                primitive.NewObjectID(),
		CustomerID:        customerID,
		ServicePackageID:  catalogPkg.ID,
		Status:            model.PackageActive,
		RemainingServices: 3,
		UsedServices:      9,
	}
	require.NoError(t, env.packages.Insert(context.Background(), sub))

	res, err := env.svc.Create(context.Background(), CreateRequest{
		CustomerID:        customerID,
		VehicleID:         vehicle.ID,
		ServiceCenterID:   center.ID,
		ServiceTypeID:     &st.ID,
		CustomerPackageID: &sub.ID,
		AppointmentDate:   testMonday,
		StartTime:         "08:00",
	})
	require.NoError(t, err)

	appt := res.Appointment
	assert.Zero(t, appt.ServiceDetails.EstimatedCost, "package absorbs the cost")
	assert.True(t, appt.ServiceDetails.IsFromPackage)
	assert.False(t, res.RequiresPayment)
	assert.Equal(t, model.MethodNotRequired, appt.Payment.Method)

	// Quota moves by exactly one with exactly one usage entry.
	updated, err := env.packages.GetByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.RemainingServices)
	assert.Equal(t, 10, updated.UsedServices)
	require.Len(t, updated.UsageHistory, 1)
	assert.Equal(t, appt.ID, updated.UsageHistory[0].AppointmentID)
}

func TestCreate_PackageSubscribedOnTheFly(t *testing.T) {
	env := newTestEnv(t)
	center := newTestCenter()
	env.catalog.centers[center.ID] = center
	customerID, vehicle := seedCustomerVehicle(env)

	catalogPkg := &model.ServicePackage{
		ID:                  primitive.NewObjectID(),
		Name:                "Goi toan dien",
		MaxServicesPerMonth: 2,
		DurationMonths:      12,
		IsActive:            true,
	}
	env.catalog.packages[catalogPkg.ID] = catalogPkg

	res, err := env.svc.Create(context.Background(), CreateRequest{
		CustomerID:       customerID,
		VehicleID:        vehicle.ID,
		ServiceCenterID:  center.ID,
		ServicePackageID: &catalogPkg.ID,
		AppointmentDate:  testMonday,
		StartTime:        "08:00",
	})
	require.NoError(t, err)

	require.NotNil(t, res.Appointment.ServiceDetails.CustomerPackageID)
	sub, err := env.packages.GetByID(context.Background(), *res.Appointment.ServiceDetails.CustomerPackageID)
	require.NoError(t, err)
	// Quota 2*12 minus the consuming booking.
	assert.Equal(t, 23, sub.RemainingServices)
	assert.Equal(t, 1, sub.UsedServices)
}

func TestCreate_PackageSubscribeReusesActiveInstance(t *testing.T) {
	env := newTestEnv(t)
	center := newTestCenter()
	env.catalog.centers[center.ID] = center
	customerID, vehicle := seedCustomerVehicle(env)

	catalogPkg := &model.ServicePackage{
		ID:                  primitive.NewObjectID(),
		Name:                "Goi toan dien",
		MaxServicesPerMonth: 2,
		DurationMonths:      12,
		IsActive:            true,
	}
	env.catalog.packages[catalogPkg.ID] = catalogPkg

	req := CreateRequest{
		CustomerID:       customerID,
		VehicleID:        vehicle.ID,
		ServiceCenterID:  center.ID,
		ServicePackageID: &catalogPkg.ID,
		AppointmentDate:  testMonday,
		StartTime:        "08:00",
	}

	first, err := env.svc.Create(context.Background(), req)
	require.NoError(t, err)
	second, err := env.svc.Create(context.Background(), req)
	require.NoError(t, err)

	// Both bookings consume the same subscription instance.
	require.Len(t, env.packages.packages, 1)
	assert.Equal(t,
		*first.Appointment.ServiceDetails.CustomerPackageID,
		*second.Appointment.ServiceDetails.CustomerPackageID)

	sub, err := env.packages.GetByID(context.Background(), *first.Appointment.ServiceDetails.CustomerPackageID)
	require.NoError(t, err)
	assert.Equal(t, 22, sub.RemainingServices)
	assert.Equal(t, 2, sub.UsedServices)
	require.Len(t, sub.UsageHistory, 2)
}

func TestCreate_PackageRules(t *testing.T) {
	env := newTestEnv(t)
	center := newTestCenter()
	env.catalog.centers[center.ID] = center
	customerID, vehicle := seedCustomerVehicle(env)

	covered := &model.ServiceType{ID: primitive.NewObjectID(), Name: "Kiem tra pin", DurationMinutes: 60}
	uncovered := &model.ServiceType{ID: primitive.NewObjectID(), Name: "Thay lop", DurationMinutes: 60}
	env.catalog.types[covered.ID] = covered
	env.catalog.types[uncovered.ID] = uncovered

	catalogPkg := &model.ServicePackage{
		ID:                  primitive.NewObjectID(),
		MaxServicesPerMonth: 1,
		DurationMonths:      1,
		IncludedServices:    []primitive.ObjectID{covered.ID},
	}
	env.catalog.packages[catalogPkg.ID] = catalogPkg

	exhausted := &model.CustomerPackage{ID: primitive.NewObjectID(), CustomerID: customerID, ServicePackageID: catalogPkg.ID, Status: model.PackageActive, RemainingServices: 0}
	expired := &model.CustomerPackage{ID: primitive.NewObjectID(), CustomerID: customerID, ServicePackageID: catalogPkg.ID, Status: model.PackageExpired, RemainingServices: 5}
	active := &model.CustomerPackage{ID: primitive.NewObjectID(), CustomerID: customerID, ServicePackageID: catalogPkg.ID, Status: model.PackageActive, RemainingServices: 5}
	for _, p := range []*model.CustomerPackage{exhausted, expired, active} {
		require.NoError(t, env.packages.Insert(context.Background(), p))
	}

	base := CreateRequest{
		CustomerID:      customerID,
		VehicleID:       vehicle.ID,
		ServiceCenterID: center.ID,
		AppointmentDate: testMonday,
		StartTime:       "08:00",
	}

	tests := []struct {
		name    string
		mutate  func(*CreateRequest)
		wantErr error
	}{
		{"exhausted quota", func(r *CreateRequest) { r.CustomerPackageID = &exhausted.ID }, ErrPackageExhausted},
		{"inactive subscription", func(r *CreateRequest) { r.CustomerPackageID = &expired.ID }, ErrPackageInactive},
		{"service not covered", func(r *CreateRequest) {
			r.CustomerPackageID = &active.ID
			r.ServiceTypeID = &uncovered.ID
		}, ErrPackageNotCovered},
		{"nothing selected", func(r *CreateRequest) {}, ErrNoServiceSelected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := env.svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreate_VehicleOwnership(t *testing.T) {
	env := newTestEnv(t)
	center := newTestCenter()
	env.catalog.centers[center.ID] = center
	_, vehicle := seedCustomerVehicle(env)

	_, err := env.svc.Create(context.Background(), CreateRequest{
		CustomerID:       primitive.NewObjectID(), // not the vehicle owner
		VehicleID:        vehicle.ID,
		ServiceCenterID:  center.ID,
		IsInspectionOnly: true,
		AppointmentDate:  testMonday,
		StartTime:        "08:00",
	})
	assert.ErrorIs(t, err, ErrVehicleOwnership)
}

func TestCreate_CrossMidnightRejected(t *testing.T) {
	env := newTestEnv(t)
	center := newTestCenter()
	env.catalog.centers[center.ID] = center
	customerID, vehicle := seedCustomerVehicle(env)

	st := &model.ServiceType{ID: primitive.NewObjectID(), Name: "Dai tu", DurationMinutes: 180}
	env.catalog.types[st.ID] = st

	_, err := env.svc.Create(context.Background(), CreateRequest{
		CustomerID:      customerID,
		VehicleID:       vehicle.ID,
		ServiceCenterID: center.ID,
		ServiceTypeID:   &st.ID,
		AppointmentDate: testMonday,
		StartTime:       "23:00",
	})
	assert.ErrorIs(t, err, ErrCrossMidnight)
}

func createPendingBooking(t *testing.T, env *testEnv, method model.PaymentMethod) *model.Appointment {
	t.Helper()
	center := newTestCenter()
	env.catalog.centers[center.ID] = center
	customerID, vehicle := seedCustomerVehicle(env)

	res, err := env.svc.Create(context.Background(), CreateRequest{
		CustomerID:        customerID,
		VehicleID:         vehicle.ID,
		ServiceCenterID:   center.ID,
		IsInspectionOnly:  true,
		AppointmentDate:   testMonday,
		StartTime:         "09:00",
		PaymentPreference: method,
	})
	require.NoError(t, err)
	return res.Appointment
}

func TestConfirm_Gating(t *testing.T) {
	t.Run("pending online deposit blocks", func(t *testing.T) {
		env := newTestEnv(t)
		appt := createPendingBooking(t, env, model.MethodEwallet)

		_, err := env.svc.Confirm(context.Background(), appt.ID, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrUnpaidDeposit)
	})

	t.Run("pending cash charge does not block", func(t *testing.T) {
		env := newTestEnv(t)
		appt := createPendingBooking(t, env, model.MethodCash)

		staffID := primitive.NewObjectID()
		res, err := env.svc.Confirm(context.Background(), appt.ID, staffID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, res.Appointment.Status)
		require.NotNil(t, res.Appointment.Confirmation)
		assert.Equal(t, staffID, res.Appointment.Confirmation.ConfirmedBy)
		assert.Equal(t, 1, env.notifier.confirmed)
	})

	t.Run("paid online deposit clears the gate", func(t *testing.T) {
		env := newTestEnv(t)
		appt := createPendingBooking(t, env, model.MethodEwallet)
		appt.Payment.Status = model.AppointmentPaymentPaid
		require.NoError(t, env.appts.Update(context.Background(), appt))

		res, err := env.svc.Confirm(context.Background(), appt.ID, primitive.NewObjectID())
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, res.Appointment.Status)
	})

	t.Run("already confirmed", func(t *testing.T) {
		env := newTestEnv(t)
		appt := createPendingBooking(t, env, model.MethodCash)
		_, err := env.svc.Confirm(context.Background(), appt.ID, primitive.NewObjectID())
		require.NoError(t, err)

		_, err = env.svc.Confirm(context.Background(), appt.ID, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrNotConfirmable)
	})
}

func TestCancel(t *testing.T) {
	env := newTestEnv(t)
	appt := createPendingBooking(t, env, model.MethodCash)

	byID := primitive.NewObjectID()
	res, err := env.svc.Cancel(context.Background(), appt.ID, byID, "doi lich ca nhan")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, res.Appointment.Status)
	require.NotNil(t, res.Appointment.Cancellation)
	assert.Equal(t, "doi lich ca nhan", res.Appointment.Cancellation.Reason)
	assert.Equal(t, 1, env.notifier.cancelled)

	_, err = env.svc.Cancel(context.Background(), appt.ID, byID, "again")
	assert.ErrorIs(t, err, ErrNotCancellable)

	// Nothing was reserved yet, so nothing to give back.
	assert.Empty(t, res.SideEffects)
	assert.Empty(t, env.inventory.released)
}

func cancelApprovedBooking(t *testing.T, env *testEnv) *model.Appointment {
	t.Helper()
	appt := createPendingBooking(t, env, model.MethodCash)
	appt.Status = model.StatusQuoteApproved
	require.NoError(t, env.appts.Update(context.Background(), appt))
	return appt
}

func TestCancel_AfterQuoteApprovalReleasesHold(t *testing.T) {
	env := newTestEnv(t)
	appt := cancelApprovedBooking(t, env)

	res, err := env.svc.Cancel(context.Background(), appt.ID, appt.CustomerID, "doi y")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, res.Appointment.Status)

	require.Len(t, env.inventory.released, 1)
	assert.Equal(t, appt.ID, env.inventory.released[0])
	require.Len(t, res.SideEffects, 1)
	assert.Equal(t, "inventory_release", res.SideEffects[0].Name)
	assert.True(t, res.SideEffects[0].OK())
}

func TestCancel_ReleaseOutcomes(t *testing.T) {
	t.Run("labor-only quote has no hold", func(t *testing.T) {
		env := newTestEnv(t)
		env.inventory.noHold = true
		appt := cancelApprovedBooking(t, env)

		res, err := env.svc.Cancel(context.Background(), appt.ID, appt.CustomerID, "doi y")
		require.NoError(t, err)
		require.Len(t, res.SideEffects, 1)
		assert.True(t, res.SideEffects[0].OK())
	})

	t.Run("release failure does not block the cancel", func(t *testing.T) {
		env := newTestEnv(t)
		env.inventory.fail = true
		appt := cancelApprovedBooking(t, env)

		res, err := env.svc.Cancel(context.Background(), appt.ID, appt.CustomerID, "doi y")
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, res.Appointment.Status)
		require.Len(t, res.SideEffects, 1)
		assert.Equal(t, "inventory_release", res.SideEffects[0].Name)
		assert.False(t, res.SideEffects[0].OK())
	})
}

func TestReschedule(t *testing.T) {
	env := newTestEnv(t)
	appt := createPendingBooking(t, env, model.MethodCash)
	_, err := env.svc.Confirm(context.Background(), appt.ID, primitive.NewObjectID())
	require.NoError(t, err)

	newDate := time.Now().AddDate(0, 0, 14)
	res, err := env.svc.Reschedule(context.Background(), appt.ID, appt.CustomerID, RescheduleRequest{
		NewDate:      newDate,
		NewStartTime: "10:30",
		Reason:       "ban dot xuat",
	})
	require.NoError(t, err)

	got := res.Appointment
	assert.Equal(t, model.StatusPendingConfirmation, got.Status, "reschedule re-enters the confirmation gate")
	assert.Nil(t, got.Confirmation)
	assert.Equal(t, "10:30", got.StartTime)
	assert.Equal(t, "11:30", got.EndTime)
	require.NotNil(t, got.Rescheduling)
	require.Len(t, got.Rescheduling.History, 1)
	assert.Equal(t, "09:00", got.Rescheduling.History[0].FromStartTime)
	assert.Equal(t, 1, env.notifier.rescheduled)
}

func TestReschedule_Guards(t *testing.T) {
	env := newTestEnv(t)
	appt := createPendingBooking(t, env, model.MethodCash)

	_, err := env.svc.Reschedule(context.Background(), appt.ID, appt.CustomerID, RescheduleRequest{
		NewDate:      time.Now().AddDate(0, 0, -1),
		NewStartTime: "10:00",
	})
	assert.ErrorIs(t, err, ErrPastDate)

	// Work has started: reschedule is no longer allowed.
	appt.Status = model.StatusInProgress
	require.NoError(t, env.appts.Update(context.Background(), appt))
	_, err = env.svc.Reschedule(context.Background(), appt.ID, appt.CustomerID, RescheduleRequest{
		NewDate:      time.Now().AddDate(0, 0, 7),
		NewStartTime: "10:00",
	})
	assert.ErrorIs(t, err, ErrNotReschedulable)
}
