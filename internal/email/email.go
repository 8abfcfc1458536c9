package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"travel-booking/internal/data/entity"
	"travel-booking/pkg/utils"

	"go.uber.org/zap"
)

// Notifier delivers booking lifecycle notices to the order's contact email.
// Failures are logged by callers but never abort the triggering operation.
type Notifier interface {
	SendTicketConfirmation(ctx context.Context, order *entity.FlightOrder) error
	SendScheduleChangeNotice(ctx context.Context, order *entity.FlightOrder) error
	SendCancellationNotice(ctx context.Context, order *entity.FlightOrder) error
}

type SMTPNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	log      *zap.Logger
}

func NewSMTPNotifier(config utils.EmailConfig, log *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		host:     config.Host,
		port:     config.Port,
		username: config.User,
		password: config.Password,
		from:     config.From,
		log:      log.With(zap.String("component", "email")),
	}
}

func (n *SMTPNotifier) send(to, subject, body string) error {
	if n.host == "" {
		// SMTP not configured in this environment; log instead of failing
		n.log.Info("Email delivery skipped, SMTP not configured",
			zap.String("to", to),
			zap.String("subject", subject))
		return nil
	}

	message := strings.Join([]string{
		"From: " + n.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	auth := smtp.PlainAuth("", n.username, n.password, n.host)
	if err := smtp.SendMail(addr, auth, n.from, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}

	n.log.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (n *SMTPNotifier) SendTicketConfirmation(ctx context.Context, order *entity.FlightOrder) error {
	subject := fmt.Sprintf("Your flight booking %s is confirmed", order.OrderNumber)
	body := fmt.Sprintf(
		"Hello,\n\nYour flight booking %s has been confirmed.\nBooking reference (PNR): %s\nTotal paid: %s %s\n\nSafe travels!",
		order.OrderNumber, order.PNR, order.TotalAmount.StringFixed(2), order.Currency)
	return n.send(order.ContactEmail, subject, body)
}

func (n *SMTPNotifier) SendScheduleChangeNotice(ctx context.Context, order *entity.FlightOrder) error {
	subject := fmt.Sprintf("Schedule change for booking %s", order.OrderNumber)
	body := fmt.Sprintf(
		"Hello,\n\nThe airline has changed the schedule for your booking %s (PNR %s).\nPlease review the updated itinerary in your account and contact us if the new times do not work for you.",
		order.OrderNumber, order.PNR)
	return n.send(order.ContactEmail, subject, body)
}

func (n *SMTPNotifier) SendCancellationNotice(ctx context.Context, order *entity.FlightOrder) error {
	subject := fmt.Sprintf("Booking %s has been cancelled", order.OrderNumber)
	body := fmt.Sprintf(
		"Hello,\n\nYour flight booking %s (PNR %s) has been cancelled.\nIf a refund is due it will be processed to your original payment method.",
		order.OrderNumber, order.PNR)
	return n.send(order.ContactEmail, subject, body)
}

var _ Notifier = (*SMTPNotifier)(nil)
