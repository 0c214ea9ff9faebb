package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/evcare-vn/evcare_backend/internal/lifecycle"
	"github.com/evcare-vn/evcare_backend/internal/model"
	"github.com/evcare-vn/evcare_backend/internal/service/booking"
)

type BookingHandler struct {
	svc booking.Service
}

func NewBookingHandler(svc booking.Service) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func mapBookingError(c fiber.Ctx, err error) error {
	var transition *lifecycle.InvalidTransitionError
	if errors.As(err, &transition) {
		return badRequest(c, transition.Error())
	}

	switch {
	case errors.Is(err, booking.ErrAppointmentNotFound),
		errors.Is(err, booking.ErrCenterNotFound),
		errors.Is(err, booking.ErrVehicleNotFound),
		errors.Is(err, booking.ErrServiceTypeNotFound),
		errors.Is(err, booking.ErrPackageNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, booking.ErrCenterInactive),
		errors.Is(err, booking.ErrVehicleOwnership),
		errors.Is(err, booking.ErrMissingDate),
		errors.Is(err, booking.ErrPastDate),
		errors.Is(err, booking.ErrInvalidTime),
		errors.Is(err, booking.ErrHoursNotConfigured),
		errors.Is(err, booking.ErrClosedOnDay),
		errors.Is(err, booking.ErrNoTechnicians),
		errors.Is(err, booking.ErrCrossMidnight),
		errors.Is(err, booking.ErrNoServiceSelected),
		errors.Is(err, booking.ErrPackageExhausted),
		errors.Is(err, booking.ErrPackageInactive),
		errors.Is(err, booking.ErrPackageNotCovered),
		errors.Is(err, booking.ErrUnpaidDeposit),
		errors.Is(err, booking.ErrNotConfirmable),
		errors.Is(err, booking.ErrNotCancellable),
		errors.Is(err, booking.ErrNotReschedulable):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}

// GET /booking/slots/:serviceCenterId/:serviceTypeId?
// Query: date=YYYY-MM-DD
func (h *BookingHandler) GetSlots(c fiber.Ctx) error {
	centerID, err := primitive.ObjectIDFromHex(c.Params("serviceCenterId"))
	if err != nil {
		return badRequest(c, "invalid serviceCenterId")
	}

	req := booking.SlotRequest{ServiceCenterID: centerID}

	if raw := c.Params("serviceTypeId"); raw != "" {
		stID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return badRequest(c, "invalid serviceTypeId")
		}
		req.ServiceTypeID = &stID
	}

	dateStr := c.Query("date")
	if dateStr == "" {
		return badRequest(c, "date query parameter is required")
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	req.Date = date

	result, err := h.svc.GetAvailableSlots(c.Context(), req)
	if err != nil {
		return mapBookingError(c, err)
	}

	return ok(c, "available slots", result)
}

// POST /booking
func (h *BookingHandler) Create(c fiber.Ctx) error {
	customerID, found := userIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		VehicleID         string `json:"vehicleId"`
		ServiceCenterID   string `json:"serviceCenterId"`
		ServiceTypeID     string `json:"serviceTypeId"`
		ServicePackageID  string `json:"servicePackageId"`
		CustomerPackageID string `json:"customerPackageId"`
		IsInspectionOnly  bool   `json:"isInspectionOnly"`
		AppointmentDate   string `json:"appointmentDate"`
		AppointmentTime   string `json:"appointmentTime"`
		Description       string `json:"description"`
		PaymentPreference string `json:"paymentPreference"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	vehicleID, err := primitive.ObjectIDFromHex(body.VehicleID)
	if err != nil {
		return badRequest(c, "invalid vehicleId")
	}
	centerID, err := primitive.ObjectIDFromHex(body.ServiceCenterID)
	if err != nil {
		return badRequest(c, "invalid serviceCenterId")
	}

	req := booking.CreateRequest{
		CustomerID:       customerID,
		VehicleID:        vehicleID,
		ServiceCenterID:  centerID,
		IsInspectionOnly: body.IsInspectionOnly,
		StartTime:        body.AppointmentTime,
		Description:      body.Description,
	}

	if body.ServiceTypeID != "" {
		id, err := primitive.ObjectIDFromHex(body.ServiceTypeID)
		if err != nil {
			return badRequest(c, "invalid serviceTypeId")
		}
		req.ServiceTypeID = &id
	}
	if body.ServicePackageID != "" {
		id, err := primitive.ObjectIDFromHex(body.ServicePackageID)
		if err != nil {
			return badRequest(c, "invalid servicePackageId")
		}
		req.ServicePackageID = &id
	}
	if body.CustomerPackageID != "" {
		id, err := primitive.ObjectIDFromHex(body.CustomerPackageID)
		if err != nil {
			return badRequest(c, "invalid customerPackageId")
		}
		req.CustomerPackageID = &id
	}

	if body.AppointmentDate != "" {
		date, err := time.Parse("2006-01-02", body.AppointmentDate)
		if err != nil {
			return badRequest(c, "appointmentDate must be YYYY-MM-DD")
		}
		req.AppointmentDate = date
	}

	if body.PaymentPreference != "" {
		switch method := model.PaymentMethod(body.PaymentPreference); method {
		case model.MethodCash, model.MethodCard, model.MethodBanking, model.MethodEwallet:
			req.PaymentPreference = method
		default:
			return badRequest(c, "invalid paymentPreference")
		}
	}

	result, err := h.svc.Create(c.Context(), req)
	if err != nil {
		return mapBookingError(c, err)
	}

	return created(c, "booking created", fiber.Map{
		"appointment":     result.Appointment,
		"payment":         result.Payment,
		"requiresPayment": result.RequiresPayment,
		"sideEffects":     sideEffectViews(result.SideEffects),
	})
}

// POST /booking/:bookingId/confirm (staff)
func (h *BookingHandler) Confirm(c fiber.Ctx) error {
	staffID, found := userIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	bookingID, err := primitive.ObjectIDFromHex(c.Params("bookingId"))
	if err != nil {
		return badRequest(c, "invalid bookingId")
	}

	result, err := h.svc.Confirm(c.Context(), bookingID, staffID)
	if err != nil {
		return mapBookingError(c, err)
	}

	return ok(c, "booking confirmed", fiber.Map{
		"appointment": result.Appointment,
		"sideEffects": sideEffectViews(result.SideEffects),
	})
}

// POST /booking/:bookingId/cancel
func (h *BookingHandler) Cancel(c fiber.Ctx) error {
	byID, found := userIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	bookingID, err := primitive.ObjectIDFromHex(c.Params("bookingId"))
	if err != nil {
		return badRequest(c, "invalid bookingId")
	}

	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.Bind().JSON(&body)

	result, err := h.svc.Cancel(c.Context(), bookingID, byID, body.Reason)
	if err != nil {
		return mapBookingError(c, err)
	}

	return ok(c, "booking cancelled", fiber.Map{
		"appointment": result.Appointment,
		"sideEffects": sideEffectViews(result.SideEffects),
	})
}

// PUT /booking/:bookingId/reschedule
func (h *BookingHandler) Reschedule(c fiber.Ctx) error {
	byID, found := userIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	bookingID, err := primitive.ObjectIDFromHex(c.Params("bookingId"))
	if err != nil {
		return badRequest(c, "invalid bookingId")
	}

	var body struct {
		NewDate      string `json:"newDate"`
		NewStartTime string `json:"newStartTime"`
		Reason       string `json:"reason"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	req := booking.RescheduleRequest{
		NewStartTime: body.NewStartTime,
		Reason:       body.Reason,
	}
	if body.NewDate != "" {
		date, err := time.Parse("2006-01-02", body.NewDate)
		if err != nil {
			return badRequest(c, "newDate must be YYYY-MM-DD")
		}
		req.NewDate = date
	}

	result, err := h.svc.Reschedule(c.Context(), bookingID, byID, req)
	if err != nil {
		return mapBookingError(c, err)
	}

	return ok(c, "booking rescheduled", fiber.Map{
		"appointment": result.Appointment,
		"sideEffects": sideEffectViews(result.SideEffects),
	})
}

// GET /booking/:bookingId
func (h *BookingHandler) GetByID(c fiber.Ctx) error {
	bookingID, err := primitive.ObjectIDFromHex(c.Params("bookingId"))
	if err != nil {
		return badRequest(c, "invalid bookingId")
	}

	appt, err := h.svc.GetByID(c.Context(), bookingID)
	if err != nil {
		return mapBookingError(c, err)
	}

	return ok(c, "booking", appt)
}

// GET /booking
// Query: status=, limit=
func (h *BookingHandler) ListMine(c fiber.Ctx) error {
	customerID, found := userIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	var q struct {
		Status string `query:"status"`
		Limit  int64  `query:"limit"`
	}
	_ = c.Bind().Query(&q)

	appts, err := h.svc.ListByCustomer(c.Context(), customerID, model.AppointmentStatus(q.Status), q.Limit)
	if err != nil {
		return mapBookingError(c, err)
	}

	return ok(c, "bookings", appts)
}
