package service

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/logger"
)

type smtpNotifier struct {
	from     string
	fromName string
	send     func(m *gomail.Message) error
}

// NewSMTPNotifier mails customers through a plain SMTP relay.
func NewSMTPNotifier(host string, port int, username, password, fromEmail, fromName string) Notifier {
	d := gomail.NewDialer(host, port, username, password)
	return &smtpNotifier{
		from:     fromEmail,
		fromName: fromName,
		send: func(m *gomail.Message) error {
			return d.DialAndSend(m)
		},
	}
}

func (n *smtpNotifier) SendRentalConfirmation(ctx context.Context, c domain.Customer, a *domain.Agreement) error {
	subject, body := rentalConfirmationEmail(c, a)
	return n.sendEmail(ctx, c, "rental_confirmation", subject, body)
}

func (n *smtpNotifier) SendReturnReceipt(ctx context.Context, c domain.Customer, a *domain.Agreement) error {
	subject, body := returnReceiptEmail(c, a)
	return n.sendEmail(ctx, c, "return_receipt", subject, body)
}

func (n *smtpNotifier) SendOverdueReminder(ctx context.Context, c domain.Customer, a *domain.Agreement) error {
	subject, body := overdueReminderEmail(c, a)
	return n.sendEmail(ctx, c, "overdue_reminder", subject, body)
}

func (n *smtpNotifier) sendEmail(ctx context.Context, c domain.Customer, kind, subject, body string) error {
	if c.Email == "" {
		logger.Debug("Customer has no email address, skipping", "customerID", c.ID, "kind", kind)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", n.from, n.fromName)
	m.SetAddressHeader("To", c.Email, c.Name)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	logger.ExternalServiceCall("smtp", kind, "customerID", c.ID)
	err := n.send(m)
	logger.ExternalServiceResult("smtp", kind, err, "customerID", c.ID)
	if err != nil {
		return fmt.Errorf("failed to send %s email via smtp: %w", kind, err)
	}
	return nil
}
