package email

import (
	"fmt"

	"tarang-backend/models"

	"github.com/apex/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender handles sending emails via SendGrid
type Sender struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

// NewSender creates a new email sender
func NewSender(apiKey, fromName, fromEmail string) *Sender {
	return &Sender{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// SendDonationReceipt sends the donation confirmation email
func (s *Sender) SendDonationReceipt(donation *models.Donation) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	subject := fmt.Sprintf("Tarang donation receipt %s", donation.ReceiptNumber)
	to := mail.NewEmail(donation.DonorName, donation.Email)

	plainText := fmt.Sprintf(`Dear %s,

Thank you for supporting disaster relief through Tarang.

Receipt number: %s
Amount: INR %.2f
Date: %s

Your contribution funds rescue supplies, volunteer coordination and
community preparedness programs.

With gratitude,
The Tarang Team`,
		donation.DonorName, donation.ReceiptNumber, donation.AmountINR,
		donation.CreatedAt.Format("02 Jan 2006"))

	htmlContent := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background-color: #1565c0; color: white; padding: 20px; border-radius: 5px 5px 0 0; text-align: center;">
        <h1>Thank you, %s!</h1>
    </div>
    <div style="background-color: #f9f9f9; padding: 30px; border: 1px solid #ddd;">
        <p>Your donation to Tarang has been recorded.</p>
        <table style="width: 100%%; border-collapse: collapse;">
            <tr><td style="padding: 8px 0;"><strong>Receipt number</strong></td><td>%s</td></tr>
            <tr><td style="padding: 8px 0;"><strong>Amount</strong></td><td>INR %.2f</td></tr>
            <tr><td style="padding: 8px 0;"><strong>Date</strong></td><td>%s</td></tr>
        </table>
        <p>Your contribution funds rescue supplies, volunteer coordination and community preparedness programs.</p>
    </div>
    <div style="padding: 20px; text-align: center; font-size: 0.9em; color: #666;">
        <p>With gratitude,<br>The Tarang Team</p>
    </div>
</body>
</html>`,
		donation.DonorName, donation.ReceiptNumber, donation.AmountINR,
		donation.CreatedAt.Format("02 Jan 2006"))

	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	response, err := s.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send receipt email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected receipt email: status %d", response.StatusCode)
	}

	log.Infof("Sent donation receipt %s to %s", donation.ReceiptNumber, donation.Email)
	return nil
}
