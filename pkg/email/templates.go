package email

import (
	"fmt"
)

// BookingEmailData contains the data needed for appointment email templates.
type BookingEmailData struct {
	CustomerName string
	Email        string
	CenterName   string
	ServiceName  string
	Date         string
	StartTime    string
	EndTime      string
	AmountVND    int64
	CheckoutURL  string
	AppName      string
	SupportEmail string
}

func (d BookingEmailData) appName() string {
	if d.AppName == "" {
		return "EVCare"
	}
	return d.AppName
}

func (d BookingEmailData) customer() string {
	if d.CustomerName == "" {
		return "quý khách"
	}
	return d.CustomerName
}

// BuildBookingConfirmationEmail creates the email sent right after a booking
// is created, including the payment link when an upfront charge applies.
func BuildBookingConfirmationEmail(data BookingEmailData) Message {
	subject := fmt.Sprintf("%s — Xác nhận đặt lịch %s", data.appName(), data.Date)

	paymentText := ""
	paymentHTML := ""
	if data.AmountVND > 0 && data.CheckoutURL != "" {
		paymentText = fmt.Sprintf("\nVui lòng thanh toán %d VND để giữ chỗ:\n%s\n", data.AmountVND, data.CheckoutURL)
		paymentHTML = fmt.Sprintf(`<p>Vui lòng thanh toán <strong>%d VND</strong> để giữ chỗ:</p>
    <p style="text-align: center; margin: 30px 0;">
        <a href="%s" style="background-color: #16a34a; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Thanh toán</a>
    </p>`, data.AmountVND, data.CheckoutURL)
	}

	textBody := fmt.Sprintf(`Chào %s,

Lịch hẹn của bạn tại %s đã được ghi nhận.

Dịch vụ: %s
Ngày: %s
Giờ: %s - %s
%s
Trân trọng,
Đội ngũ %s`,
		data.customer(), data.CenterName, data.ServiceName, data.Date, data.StartTime, data.EndTime, paymentText, data.appName())

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #16a34a;">Chào %s,</h2>
    <p>Lịch hẹn của bạn tại <strong>%s</strong> đã được ghi nhận.</p>
    <p>Dịch vụ: <strong>%s</strong><br>Ngày: <strong>%s</strong><br>Giờ: <strong>%s - %s</strong></p>
    %s
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">Trân trọng,<br>Đội ngũ %s</p>
</body>
</html>`,
		data.customer(), data.CenterName, data.ServiceName, data.Date, data.StartTime, data.EndTime, paymentHTML, data.appName())

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}

// BuildRescheduleEmail notifies the customer that the appointment moved.
func BuildRescheduleEmail(data BookingEmailData) Message {
	subject := fmt.Sprintf("%s — Lịch hẹn đã được dời sang %s", data.appName(), data.Date)

	textBody := fmt.Sprintf(`Chào %s,

Lịch hẹn của bạn tại %s đã được dời.

Thời gian mới: %s, %s - %s

Lịch hẹn sẽ cần được trung tâm xác nhận lại.

Trân trọng,
Đội ngũ %s`,
		data.customer(), data.CenterName, data.Date, data.StartTime, data.EndTime, data.appName())

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
	}
}

// BuildReminderEmail is sent ahead of a confirmed appointment.
func BuildReminderEmail(data BookingEmailData) Message {
	subject := fmt.Sprintf("%s — Nhắc lịch hẹn ngày %s", data.appName(), data.Date)

	textBody := fmt.Sprintf(`Chào %s,

Nhắc bạn lịch hẹn tại %s vào %s lúc %s.

Trân trọng,
Đội ngũ %s`,
		data.customer(), data.CenterName, data.Date, data.StartTime, data.appName())

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
	}
}

// InvoiceEmailData contains the data for the completion invoice email.
type InvoiceEmailData struct {
	CustomerName  string
	Email         string
	CenterName    string
	InvoiceNumber string
	TotalVND      int64
	PaymentMethod string
	AppName       string
}

// BuildInvoiceEmail is sent when maintenance completes and the invoice is issued.
func BuildInvoiceEmail(data InvoiceEmailData) Message {
	appName := data.AppName
	if appName == "" {
		appName = "EVCare"
	}
	name := data.CustomerName
	if name == "" {
		name = "quý khách"
	}

	subject := fmt.Sprintf("%s — Hóa đơn %s", appName, data.InvoiceNumber)

	textBody := fmt.Sprintf(`Chào %s,

Dịch vụ của bạn tại %s đã hoàn tất.

Hóa đơn: %s
Tổng cộng: %d VND
Hình thức thanh toán: %s

Cảm ơn bạn đã tin dùng %s.`,
		name, data.CenterName, data.InvoiceNumber, data.TotalVND, data.PaymentMethod, appName)

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
	}
}
