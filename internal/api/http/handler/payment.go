package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/evcare-vn/evcare_backend/internal/model"
	"github.com/evcare-vn/evcare_backend/internal/service/payment"
	"github.com/evcare-vn/evcare_backend/pkg/payos"
)

type PaymentHandler struct {
	svc         payment.Service
	checksumKey string
}

func NewPaymentHandler(svc payment.Service, checksumKey string) *PaymentHandler {
	return &PaymentHandler{svc: svc, checksumKey: checksumKey}
}

func mapPaymentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, payment.ErrPaymentNotFound),
		errors.Is(err, payment.ErrAppointmentNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, payment.ErrAlreadyPaid),
		errors.Is(err, payment.ErrUnknownStatus):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}

// POST /payments/webhook
// Gateway callback. The envelope carries a signed data object; deliveries
// with a bad signature are rejected before any state is touched.
func (h *PaymentHandler) Webhook(c fiber.Ctx) error {
	var body struct {
		Code      string          `json:"code"`
		Desc      string          `json:"desc"`
		Success   bool            `json:"success"`
		Data      json.RawMessage `json:"data"`
		Signature string          `json:"signature"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if len(body.Data) == 0 {
		return badRequest(c, "missing data")
	}

	fields, err := webhookFields(body.Data)
	if err != nil {
		return badRequest(c, "invalid data object")
	}
	if !payos.VerifyWebhook(h.checksumKey, fields, body.Signature) {
		return badRequest(c, "invalid signature")
	}

	orderCode, err := strconv.ParseInt(fields["orderCode"], 10, 64)
	if err != nil {
		return badRequest(c, "invalid orderCode")
	}

	status := strings.ToUpper(fields["status"])
	if status == "" && fields["code"] == "00" {
		status = "PAID"
	}

	amount, _ := strconv.ParseInt(fields["amount"], 10, 64)

	ev := payment.WebhookEvent{
		OrderCode:       orderCode,
		Status:          status,
		TransactionID:   fields["reference"],
		TransactionTime: parseTransactionTime(fields["transactionDateTime"]),
		Amount:          amount,
	}

	result, err := h.svc.HandleWebhook(c.Context(), ev)
	if err != nil {
		return mapPaymentError(c, err)
	}

	return ok(c, "webhook processed", fiber.Map{
		"payment": result.Payment,
		"changed": result.Changed,
	})
}

// GET /payments/success
// Browser redirect target after checkout. Query: code, id, status, orderCode.
func (h *PaymentHandler) Success(c fiber.Ctx) error {
	return h.handleReturn(c, returnPageSuccess)
}

// GET /payments/cancel
func (h *PaymentHandler) Cancel(c fiber.Ctx) error {
	return h.handleReturn(c, returnPageCancel)
}

func (h *PaymentHandler) handleReturn(c fiber.Ctx, page func(settled bool) string) error {
	orderCodeStr := c.Query("orderCode")
	status := strings.ToUpper(c.Query("status"))

	settled := false
	if orderCodeStr != "" {
		orderCode, err := strconv.ParseInt(orderCodeStr, 10, 64)
		if err == nil {
			result, err := h.svc.HandleReturn(c.Context(), orderCode, status)
			if err == nil && result.Payment != nil {
				settled = result.Payment.Status == model.PaymentPaid
			}
		}
	}

	c.Type("html")
	return c.SendString(page(settled))
}

// GET /payments/sync/:orderCode
// Manual reconciliation against the gateway.
func (h *PaymentHandler) Sync(c fiber.Ctx) error {
	orderCode, err := strconv.ParseInt(c.Params("orderCode"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid orderCode")
	}

	result, err := h.svc.SyncStatus(c.Context(), orderCode)
	if err != nil {
		return mapPaymentError(c, err)
	}

	return ok(c, "payment synced", fiber.Map{
		"payment":     result.Payment,
		"appointment": result.Appointment,
		"changed":     result.Changed,
	})
}

// GET /payments/:orderCode
func (h *PaymentHandler) GetByOrderCode(c fiber.Ctx) error {
	orderCode, err := strconv.ParseInt(c.Params("orderCode"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid orderCode")
	}

	p, err := h.svc.GetByOrderCode(c.Context(), orderCode)
	if err != nil {
		return mapPaymentError(c, err)
	}

	return ok(c, "payment", p)
}

// webhookFields flattens the signed data object to the string form the
// gateway hashes. UseNumber keeps order codes and amounts in their exact
// wire text, which matters because the signature covers that text.
func webhookFields(raw json.RawMessage) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			fields[k] = val
		case json.Number:
			fields[k] = val.String()
		case bool:
			fields[k] = strconv.FormatBool(val)
		case nil:
			fields[k] = ""
		default:
			b, err := json.Marshal(val)
			if err != nil {
				return nil, err
			}
			fields[k] = string(b)
		}
	}
	return fields, nil
}

func parseTransactionTime(s string) time.Time {
	if s == "" {
		return time.Now()
	}
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now()
}

func returnPageSuccess(settled bool) string {
	if settled {
		return `<!DOCTYPE html>
<html lang="vi"><head><meta charset="utf-8"><title>Thanh toán thành công</title></head>
<body><h1>Thanh toán thành công</h1>
<p>Cảm ơn bạn. Lịch hẹn của bạn đã được ghi nhận thanh toán.</p>
<p>Bạn có thể đóng cửa sổ này.</p></body></html>`
	}
	return `<!DOCTYPE html>
<html lang="vi"><head><meta charset="utf-8"><title>Đang xử lý thanh toán</title></head>
<body><h1>Đang xử lý thanh toán</h1>
<p>Thanh toán của bạn đang được xác nhận. Vui lòng kiểm tra lại sau ít phút.</p></body></html>`
}

func returnPageCancel(bool) string {
	return `<!DOCTYPE html>
<html lang="vi"><head><meta charset="utf-8"><title>Đã hủy thanh toán</title></head>
<body><h1>Thanh toán đã bị hủy</h1>
<p>Bạn có thể đặt lại thanh toán từ trang lịch hẹn của mình.</p></body></html>`
}
