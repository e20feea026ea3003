package email

import (
	"fmt"

	"github.com/hayatos/hayatos/internal/obs"
	"github.com/resend/resend-go/v3"
)

// ResendEmailService sends email through the Resend API.
type ResendEmailService struct {
	client *resend.Client
	from   string
}

// NewResendEmailService creates a Resend-backed email service.
func NewResendEmailService(apiKey, from string) *ResendEmailService {
	return &ResendEmailService{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// Send renders the named template and delivers it via Resend.
func (s *ResendEmailService) Send(to, templateName string, data any) error {
	rendered, err := renderTemplate(templateName, data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: rendered.Subject,
		Html:    rendered.HTML,
		Text:    rendered.Text,
	}

	sent, err := s.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("resend send to %s: %w", to, err)
	}

	obs.Pkg("email").Info("email_sent", "to", to, "template", templateName, "resend_id", sent.Id)
	return nil
}
