package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/evcare-vn/evcare_backend/config"
	"github.com/evcare-vn/evcare_backend/internal/model"
	"github.com/evcare-vn/evcare_backend/internal/store"
	"github.com/evcare-vn/evcare_backend/pkg/payos"
)

var errFakeNotFound = errors.New("not found")

type fakePaymentStore struct {
	byOrderCode map[int64]*model.Payment
	failInserts int // insert attempts to fail with a duplicate before succeeding
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{byOrderCode: map[int64]*model.Payment{}}
}

func (f *fakePaymentStore) Insert(_ context.Context, p *model.Payment) error {
	if f.failInserts > 0 {
		f.failInserts--
		return store.ErrDuplicateOrderCode
	}
	if _, ok := f.byOrderCode[p.OrderCode]; ok {
		return store.ErrDuplicateOrderCode
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	cp := *p
	f.byOrderCode[p.OrderCode] = &cp
	return nil
}

func (f *fakePaymentStore) GetByOrderCode(_ context.Context, orderCode int64) (*model.Payment, error) {
	p, ok := f.byOrderCode[orderCode]
	if !ok {
		return nil, errFakeNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentStore) Update(_ context.Context, p *model.Payment) error {
	if _, ok := f.byOrderCode[p.OrderCode]; !ok {
		return errFakeNotFound
	}
	cp := *p
	f.byOrderCode[p.OrderCode] = &cp
	return nil
}

func (f *fakePaymentStore) ListPendingExpiredBefore(_ context.Context, cutoff time.Time) ([]*model.Payment, error) {
	var out []*model.Payment
	for _, p := range f.byOrderCode {
		if p.Status == model.PaymentPending && p.ExpiresAt.Before(cutoff) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakePaymentStore) FindActiveByAppointment(_ context.Context, appointmentID primitive.ObjectID) (*model.Payment, error) {
	for _, p := range f.byOrderCode {
		if p.AppointmentID == appointmentID &&
			(p.Status == model.PaymentPending || p.Status == model.PaymentPaid) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errFakeNotFound
}

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

type fakeGateway struct {
	createErr error
	linkInfo  *payos.LinkInfo
	infoErr   error
	created   int
	polled    int
}

func (f *fakeGateway) CreatePaymentLink(_ context.Context, req payos.CreateLinkRequest) (*payos.PaymentLink, error) {
	f.created++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &payos.PaymentLink{
		PaymentLinkID: "pl_test",
		CheckoutURL:   "https://pay.payos.vn/web/pl_test",
		QRCode:        "qr-data",
		OrderCode:     req.OrderCode,
		Amount:        req.Amount,
		Status:        payos.GatewayStatusPending,
	}, nil
}

func (f *fakeGateway) GetPaymentLink(_ context.Context, _ int64) (*payos.LinkInfo, error) {
	f.polled++
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return f.linkInfo, nil
}

func (f *fakeGateway) CancelPaymentLink(context.Context, int64, string) error { return nil }

type fakeNotifier struct{ received int }

func (f *fakeNotifier) PaymentReceived(context.Context, *model.Appointment, *model.Payment) {
	f.received++
}

type testEnv struct {
	payments *fakePaymentStore
	appts    *fakeAppointmentStore
	gateway  *fakeGateway
	notifier *fakeNotifier
	svc      Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		payments: newFakePaymentStore(),
		appts:    newFakeAppointmentStore(),
		gateway:  &fakeGateway{},
		notifier: &fakeNotifier{},
	}
	cfg := config.PayOSConfig{
		FrontendBaseURL:   "https://app.evcare.vn",
		LinkExpiryMinutes: 15,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.svc = New(env.payments, env.appts, env.gateway, env.notifier, cfg, logger)
	return env
}

func seedPendingAppointment(env *testEnv) *model.Appointment {
	return env.appts.put(&model.Appointment{
		CustomerID: primitive.NewObjectID(),
		Status:     model.StatusPendingConfirmation,
		Payment: model.AppointmentPayment{
			Method: model.MethodEwallet,
			Status: model.AppointmentPaymentPending,
			Amount: 200_000,
		},
	})
}

func TestCreateForAppointment(t *testing.T) {
	env := newTestEnv(t)
	appt := seedPendingAppointment(env)

	p, err := env.svc.CreateForAppointment(context.Background(), appt, 200_000, "Phi kiem tra xe EVCare trung tam Quan 1")
	require.NoError(t, err)

	assert.Equal(t, model.PaymentPending, p.Status)
	assert.Equal(t, "pl_test", p.PaymentLinkID)
	assert.Equal(t, "https://pay.payos.vn/web/pl_test", p.CheckoutURL)
	assert.GreaterOrEqual(t, p.OrderCode, int64(100000))
	assert.LessOrEqual(t, p.OrderCode, int64(999999))
	assert.LessOrEqual(t, len(p.Description), payos.DescriptionLimit)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), p.ExpiresAt, time.Minute)
}

func TestCreateForAppointment_RetriesOrderCodeCollision(t *testing.T) {
	env := newTestEnv(t)
	env.payments.failInserts = 2
	appt := seedPendingAppointment(env)

	p, err := env.svc.CreateForAppointment(context.Background(), appt, 100_000, "test")
	require.NoError(t, err)
	assert.NotZero(t, p.OrderCode)
}

func TestCreateForAppointment_OrderCodeExhaustion(t *testing.T) {
	env := newTestEnv(t)
	env.payments.failInserts = 10
	appt := seedPendingAppointment(env)

	_, err := env.svc.CreateForAppointment(context.Background(), appt, 100_000, "test")
	assert.ErrorIs(t, err, ErrOrderCodeExhausted)
}

func TestCreateForAppointment_SingleActiveInvariant(t *testing.T) {
	env := newTestEnv(t)
	appt := seedPendingAppointment(env)

	first, err := env.svc.CreateForAppointment(context.Background(), appt, 200_000, "test")
	require.NoError(t, err)

	// A second request returns the live pending link instead of minting
	// another.
	second, err := env.svc.CreateForAppointment(context.Background(), appt, 200_000, "test")
	require.NoError(t, err)
	assert.Equal(t, first.OrderCode, second.OrderCode)
	assert.Equal(t, 1, env.gateway.created)
}

func TestCreateForAppointment_PaidBlocksNewLink(t *testing.T) {
	env := newTestEnv(t)
	appt := seedPendingAppointment(env)

	p, err := env.svc.CreateForAppointment(context.Background(), appt, 200_000, "test")
	require.NoError(t, err)
	p.Status = model.PaymentPaid
	require.NoError(t, env.payments.Update(context.Background(), p))

	_, err = env.svc.CreateForAppointment(context.Background(), appt, 200_000, "test")
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestCreateForAppointment_GatewayFailureMarksFailed(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.createErr = errors.New("gateway down")
	appt := seedPendingAppointment(env)

	_, err := env.svc.CreateForAppointment(context.Background(), appt, 200_000, "test")
	require.Error(t, err)

	// The record exists and is failed, not pending, so a retry can mint a
	// fresh link.
	for _, p := range env.payments.byOrderCode {
		assert.Equal(t, model.PaymentFailed, p.Status)
	}
}

func TestHandleWebhook_Paid(t *testing.T) {
	env := newTestEnv(t)
	appt := seedPendingAppointment(env)
	p, err := env.svc.CreateForAppointment(context.Background(), appt, 200_000, "test")
	require.NoError(t, err)

	txnTime := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	res, err := env.svc.HandleWebhook(context.Background(), WebhookEvent{
		OrderCode:       p.OrderCode,
		Status:          payos.GatewayStatusPaid,
		TransactionID:   "txn_001",
		TransactionTime: txnTime,
		Amount:          200_000,
	})
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Equal(t, model.PaymentPaid, res.Payment.Status)
	assert.Equal(t, "txn_001", res.Payment.TransactionID)
	require.NotNil(t, res.Payment.TransactionTime)
	assert.Equal(t, txnTime, *res.Payment.TransactionTime)

	// Paid deposit mirrors onto the appointment and auto-confirms it.
	require.NotNil(t, res.Appointment)
	assert.Equal(t, model.StatusConfirmed, res.Appointment.Status)
	assert.Equal(t, model.AppointmentPaymentPaid, res.Appointment.Payment.Status)
	assert.Equal(t, 1, env.notifier.received)
}

func TestHandleWebhook_ReplayIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	appt := seedPendingAppointment(env)
	p, err := env.svc.CreateForAppointment(context.Background(), appt, 200_000, "test")
	require.NoError(t, err)

	ev := WebhookEvent{OrderCode: p.OrderCode, Status: payos.GatewayStatusPaid, TransactionID: "txn_001"}
	first, err := env.svc.HandleWebhook(context.Background(), ev)
	require.NoError(t, err)
	require.True(t, first.Changed)
	firstTime := *first.Payment.TransactionTime

	second, err := env.svc.HandleWebhook(context.Background(), ev)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, "txn_001", second.Payment.TransactionID)
	assert.Equal(t, firstTime, *second.Payment.TransactionTime, "no new transaction stamp on replay")
}

func TestHandleWebhook_CancelledAndExpired(t *testing.T) {
	for _, tt := range []struct {
		gateway string
		want    model.PaymentStatus
	}{
		{payos.GatewayStatusCancelled, model.PaymentCancelled},
		{payos.GatewayStatusExpired, model.PaymentExpired},
	} {
		t.Run(tt.gateway, func(t *testing.T) {
			env := newTestEnv(t)
			appt := seedPendingAppointment(env)
			p, err := env.svc.CreateForAppointment(context.Background(), appt, 200_000, "test")
			require.NoError(t, err)

			res, err := env.svc.HandleWebhook(context.Background(), WebhookEvent{OrderCode: p.OrderCode, Status: tt.gateway})
			require.NoError(t, err)
			assert.True(t, res.Changed)
			assert.Equal(t, tt.want, res.Payment.Status)
			// Appointment stays pending; nothing was paid.
			got, err := env.appts.GetByID(context.Background(), appt.ID)
			require.NoError(t, err)
			assert.Equal(t, model.StatusPendingConfirmation, got.Status)
		})
	}
}

func TestHandleWebhook_UnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	appt := seedPendingAppointment(env)
	p, err := env.svc.CreateForAppointment(context.Background(), appt, 200_000, "test")
	require.NoError(t, err)

	_, err = env.svc.HandleWebhook(context.Background(), WebhookEvent{OrderCode: p.OrderCode, Status: "WEIRD"})
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestHandleReturn_OnlyPendingMutates(t *testing.T) {
	env := newTestEnv(t)
	appt := seedPendingAppointment(env)
	p, err := env.svc.CreateForAppointment(context.Background(), appt, 200_000, "test")
	require.NoError(t, err)

	res, err := env.svc.HandleReturn(context.Background(), p.OrderCode, payos.GatewayStatusCancelled)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, model.PaymentCancelled, res.Payment.Status)

	// A late redirect after the webhook settled the payment is ignored.
	res, err = env.svc.HandleReturn(context.Background(), p.OrderCode, payos.GatewayStatusPaid)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, model.PaymentCancelled, res.Payment.Status)
}

func TestSyncStatus(t *testing.T) {
	env := newTestEnv(t)
	appt := seedPendingAppointment(env)
	p, err := env.svc.CreateForAppointment(context.Background(), appt, 200_000, "test")
	require.NoError(t, err)

	env.gateway.linkInfo = &payos.LinkInfo{
		PaymentLinkID:   "pl_test",
		OrderCode:       p.OrderCode,
		Status:          payos.GatewayStatusPaid,
		TransactionTime: "2026-09-01T10:30:00Z",
	}

	res, err := env.svc.SyncStatus(context.Background(), p.OrderCode)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, model.PaymentPaid, res.Payment.Status)
	require.NotNil(t, res.Appointment)
	assert.Equal(t, model.StatusConfirmed, res.Appointment.Status)

	// A repeat sync never polls past a final status.
	polls := env.gateway.polled
	res, err = env.svc.SyncStatus(context.Background(), p.OrderCode)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, polls, env.gateway.polled)
}

func TestSyncStatus_UnknownOrderCode(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.SyncStatus(context.Background(), 123456)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func seedExpiredPending(t *testing.T, env *testEnv) *model.Payment {
	t.Helper()
	appt := seedPendingAppointment(env)
	p, err := env.svc.CreateForAppointment(context.Background(), appt, 200_000, "test")
	require.NoError(t, err)
	env.payments.byOrderCode[p.OrderCode].ExpiresAt = time.Now().Add(-time.Hour)
	return p
}

func TestReconcileExpired(t *testing.T) {
	t.Run("stale link flips to expired", func(t *testing.T) {
		env := newTestEnv(t)
		p := seedExpiredPending(t, env)
		env.gateway.linkInfo = &payos.LinkInfo{
			OrderCode: p.OrderCode,
			Status:    payos.GatewayStatusExpired,
		}

		changed, err := env.svc.ReconcileExpired(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, changed)

		got, err := env.svc.GetByOrderCode(context.Background(), p.OrderCode)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentExpired, got.Status)
	})

	t.Run("late settlement is honored", func(t *testing.T) {
		env := newTestEnv(t)
		p := seedExpiredPending(t, env)
		env.gateway.linkInfo = &payos.LinkInfo{
			PaymentLinkID:   "pl_test",
			OrderCode:       p.OrderCode,
			Status:          payos.GatewayStatusPaid,
			TransactionTime: "2026-09-01T10:30:00Z",
		}

		changed, err := env.svc.ReconcileExpired(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, changed)

		got, err := env.svc.GetByOrderCode(context.Background(), p.OrderCode)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentPaid, got.Status)
		appt, err := env.appts.GetByID(context.Background(), got.AppointmentID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, appt.Status)
	})

	t.Run("gateway outage leaves records pending", func(t *testing.T) {
		env := newTestEnv(t)
		p := seedExpiredPending(t, env)
		env.gateway.infoErr = errors.New("gateway down")

		changed, err := env.svc.ReconcileExpired(context.Background())
		require.NoError(t, err)
		assert.Zero(t, changed)

		got, err := env.svc.GetByOrderCode(context.Background(), p.OrderCode)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentPending, got.Status)
	})
}
