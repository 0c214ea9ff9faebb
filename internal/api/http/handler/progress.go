package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/evcare-vn/evcare_backend/internal/lifecycle"
	"github.com/evcare-vn/evcare_backend/internal/model"
	"github.com/evcare-vn/evcare_backend/internal/service/progress"
)

type ProgressHandler struct {
	svc progress.Service
}

func NewProgressHandler(svc progress.Service) *ProgressHandler {
	return &ProgressHandler{svc: svc}
}

func mapProgressError(c fiber.Ctx, err error) error {
	var transition *lifecycle.InvalidTransitionError
	if errors.As(err, &transition) {
		return badRequest(c, transition.Error())
	}

	switch {
	case errors.Is(err, progress.ErrAppointmentNotFound),
		errors.Is(err, progress.ErrProgressNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, progress.ErrMissingCondition),
		errors.Is(err, progress.ErrMissingDiagnosis),
		errors.Is(err, progress.ErrInvalidQuoteItem),
		errors.Is(err, progress.ErrPartNotFound),
		errors.Is(err, progress.ErrInvalidResponse),
		errors.Is(err, progress.ErrQuoteNotProvided),
		errors.Is(err, progress.ErrQuoteNotApproved),
		errors.Is(err, progress.ErrWorkNotInProgress),
		errors.Is(err, progress.ErrWorkNotCompleted),
		errors.Is(err, progress.ErrAlreadyPaid):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}

func appointmentIDParam(c fiber.Ctx) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.Params("id"))
}

func resultView(r *progress.Result) fiber.Map {
	return fiber.Map{
		"appointment": r.Appointment,
		"progress":    r.Progress,
		"invoice":     r.Invoice,
		"sideEffects": sideEffectViews(r.SideEffects),
	}
}

// POST /progress/:id/inspection-quote (staff or technician)
func (h *ProgressHandler) InspectionQuote(c fiber.Ctx) error {
	staffID, found := userIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	apptID, err := appointmentIDParam(c)
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	var body struct {
		VehicleCondition string `json:"vehicleCondition"`
		DiagnosisDetails string `json:"diagnosisDetails"`
		InspectionNotes  string `json:"inspectionNotes"`
		Items            []struct {
			PartID    string `json:"partId"`
			Name      string `json:"name"`
			Quantity  int64  `json:"quantity"`
			UnitPrice int64  `json:"unitPrice"`
		} `json:"items"`
		LaborMinutes int64 `json:"laborMinutes"`
		LaborRate    int64 `json:"laborRate"`
		QuoteAmount  int64 `json:"quoteAmount"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	req := progress.InspectionRequest{
		VehicleCondition: body.VehicleCondition,
		DiagnosisDetails: body.DiagnosisDetails,
		InspectionNotes:  body.InspectionNotes,
		LaborMinutes:     body.LaborMinutes,
		LaborRate:        body.LaborRate,
		QuoteAmount:      body.QuoteAmount,
	}
	for _, it := range body.Items {
		item := progress.QuoteItemInput{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
		if it.PartID != "" {
			partID, err := primitive.ObjectIDFromHex(it.PartID)
			if err != nil {
				return badRequest(c, "invalid partId")
			}
			item.PartID = &partID
		}
		req.Items = append(req.Items, item)
	}

	result, err := h.svc.SubmitInspectionAndQuote(c.Context(), apptID, staffID, req)
	if err != nil {
		return mapProgressError(c, err)
	}

	return ok(c, "inspection recorded", resultView(result))
}

// POST /progress/:id/quote-response (customer)
func (h *ProgressHandler) QuoteResponse(c fiber.Ctx) error {
	customerID, found := userIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	apptID, err := appointmentIDParam(c)
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	var body struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.svc.ProcessQuoteResponse(c.Context(), apptID, customerID, progress.QuoteResponseRequest{
		Status: model.QuoteStatus(body.Status),
		Note:   body.Note,
	})
	if err != nil {
		return mapProgressError(c, err)
	}

	return ok(c, "quote response recorded", resultView(result))
}

// POST /progress/:id/start-maintenance (technician)
func (h *ProgressHandler) StartMaintenance(c fiber.Ctx) error {
	technicianID, found := userIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	apptID, err := appointmentIDParam(c)
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	result, err := h.svc.StartMaintenance(c.Context(), apptID, technicianID)
	if err != nil {
		return mapProgressError(c, err)
	}

	return ok(c, "maintenance started", resultView(result))
}

// POST /progress/:id/complete-maintenance (technician)
func (h *ProgressHandler) CompleteMaintenance(c fiber.Ctx) error {
	technicianID, found := userIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	apptID, err := appointmentIDParam(c)
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	var body struct {
		WorkDone string `json:"workDone"`
	}
	_ = c.Bind().JSON(&body)

	result, err := h.svc.CompleteMaintenance(c.Context(), apptID, technicianID, body.WorkDone)
	if err != nil {
		return mapProgressError(c, err)
	}

	return ok(c, "maintenance completed", resultView(result))
}

// POST /progress/:id/cash-payment (staff)
func (h *ProgressHandler) CashPayment(c fiber.Ctx) error {
	staffID, found := userIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	apptID, err := appointmentIDParam(c)
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	var body struct {
		Amount int64 `json:"amount"`
	}
	_ = c.Bind().JSON(&body)

	result, err := h.svc.ProcessCashPayment(c.Context(), apptID, staffID, body.Amount)
	if err != nil {
		return mapProgressError(c, err)
	}

	return ok(c, "cash payment recorded", resultView(result))
}

// GET /invoices (customer)
func (h *ProgressHandler) ListMyInvoices(c fiber.Ctx) error {
	customerID, found := userIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	invs, err := h.svc.ListInvoicesByCustomer(c.Context(), customerID)
	if err != nil {
		return mapProgressError(c, err)
	}

	return ok(c, "invoices", invs)
}

// GET /progress/:id
func (h *ProgressHandler) Get(c fiber.Ctx) error {
	apptID, err := appointmentIDParam(c)
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	w, err := h.svc.GetByAppointment(c.Context(), apptID)
	if err != nil {
		return mapProgressError(c, err)
	}

	return ok(c, "work progress", w)
}
