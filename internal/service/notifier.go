package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/logger"
)

type sendFunc func(ctx context.Context, message *mail.SGMailV3) (status int, body string, err error)

type sendGridNotifier struct {
	fromEmail string
	fromName  string
	send      sendFunc
}

// NewSendGridNotifier mails customers through the SendGrid v3 API.
func NewSendGridNotifier(apiKey, fromEmail, fromName string) Notifier {
	client := sendgrid.NewSendClient(apiKey)
	return &sendGridNotifier{
		fromEmail: fromEmail,
		fromName:  fromName,
		send: func(ctx context.Context, message *mail.SGMailV3) (int, string, error) {
			resp, err := client.SendWithContext(ctx, message)
			if err != nil {
				return 0, "", err
			}
			return resp.StatusCode, resp.Body, nil
		},
	}
}

func (n *sendGridNotifier) SendRentalConfirmation(ctx context.Context, c domain.Customer, a *domain.Agreement) error {
	subject, body := rentalConfirmationEmail(c, a)
	return n.sendEmail(ctx, c, "rental_confirmation", subject, body)
}

func (n *sendGridNotifier) SendReturnReceipt(ctx context.Context, c domain.Customer, a *domain.Agreement) error {
	subject, body := returnReceiptEmail(c, a)
	return n.sendEmail(ctx, c, "return_receipt", subject, body)
}

func (n *sendGridNotifier) SendOverdueReminder(ctx context.Context, c domain.Customer, a *domain.Agreement) error {
	subject, body := overdueReminderEmail(c, a)
	return n.sendEmail(ctx, c, "overdue_reminder", subject, body)
}

func (n *sendGridNotifier) sendEmail(ctx context.Context, c domain.Customer, kind, subject, plainText string) error {
	if c.Email == "" {
		logger.Debug("Customer has no email address, skipping", "customerID", c.ID, "kind", kind)
		return nil
	}
	message := mail.NewSingleEmail(mail.NewEmail(n.fromName, n.fromEmail), subject, mail.NewEmail(c.Name, c.Email), plainText, "")

	logger.ExternalServiceCall("sendgrid", kind, "customerID", c.ID)
	status, body, err := n.send(ctx, message)
	if err == nil && status >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", status, body)
	}
	logger.ExternalServiceResult("sendgrid", kind, err, "customerID", c.ID, "status", status)
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}
	return nil
}

func rentalConfirmationEmail(c domain.Customer, a *domain.Agreement) (subject, body string) {
	subject = fmt.Sprintf("Rental confirmed: %s", a.ItemID)
	body = fmt.Sprintf("Hello %s,\n\nYour rental of %s is confirmed.\n\nAgreement: %s\nFrom: %s\nDue back: %s\nTotal charged: %.2f\nSecurity deposit: %.2f\n",
		c.Name, a.ItemID, a.ID, a.StartDate.Format("2006-01-02"), a.EndDate.Format("2006-01-02"), a.TotalAmount, a.SecurityDeposit)
	return subject, body
}

func returnReceiptEmail(c domain.Customer, a *domain.Agreement) (subject, body string) {
	subject = fmt.Sprintf("Return receipt: %s", a.ItemID)
	body = fmt.Sprintf("Hello %s,\n\nWe received %s back in %s condition.\n\nAgreement: %s\nFinal total: %.2f\nDeposit remaining: %.2f\n",
		c.Name, a.ItemID, a.ReturnCondition, a.ID, a.TotalAmount, a.SecurityDeposit)
	for desc, amount := range a.AdditionalCharges {
		body += fmt.Sprintf("%s: %.2f\n", desc, amount)
	}
	return subject, body
}

func overdueReminderEmail(c domain.Customer, a *domain.Agreement) (subject, body string) {
	subject = fmt.Sprintf("Overdue rental: %s", a.ItemID)
	body = fmt.Sprintf("Hello %s,\n\nYour rental of %s was due back on %s. Late fees accrue until it is returned.\n\nAgreement: %s\n",
		c.Name, a.ItemID, a.EndDate.Format("2006-01-02"), a.ID)
	return subject, body
}

type logNotifier struct{}

// NewLogNotifier only logs the notifications it is asked to send. It is used
// when no mail provider is configured.
func NewLogNotifier() Notifier {
	return logNotifier{}
}

func (logNotifier) SendRentalConfirmation(ctx context.Context, c domain.Customer, a *domain.Agreement) error {
	logger.InfoContext(ctx, "Rental confirmation", "customerID", c.ID, "agreementID", a.ID, "amount", a.TotalAmount, "dueBack", a.EndDate)
	return nil
}

func (logNotifier) SendReturnReceipt(ctx context.Context, c domain.Customer, a *domain.Agreement) error {
	logger.InfoContext(ctx, "Return receipt", "customerID", c.ID, "agreementID", a.ID, "total", a.TotalAmount, "condition", a.ReturnCondition)
	return nil
}

func (logNotifier) SendOverdueReminder(ctx context.Context, c domain.Customer, a *domain.Agreement) error {
	logger.InfoContext(ctx, "Overdue reminder", "customerID", c.ID, "agreementID", a.ID, "dueBack", a.EndDate)
	return nil
}
