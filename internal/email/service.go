// Package email sends transactional email (password resets) via Resend,
// with a console-logging mock for development and tests.
package email

import (
	"sync"

	"github.com/hayatos/hayatos/internal/obs"
)

// Template names.
const (
	TemplatePasswordReset = "password_reset"
	TemplateWelcome       = "welcome"
)

// PasswordResetData is the template data for password reset emails.
type PasswordResetData struct {
	Link      string
	ExpiresIn string
}

// WelcomeData is the template data for welcome emails.
type WelcomeData struct {
	Name string
}

// EmailService defines the interface for sending emails.
type EmailService interface {
	// Send sends an email using the named template. Data varies by template.
	Send(to, templateName string, data any) error
}

// SentEmail represents a captured email for testing.
type SentEmail struct {
	To       string
	Template string
	Data     any
}

// MockEmailService captures emails instead of sending them.
type MockEmailService struct {
	mu     sync.Mutex
	Emails []SentEmail
}

// NewMockEmailService creates a new mock email service.
func NewMockEmailService() *MockEmailService {
	return &MockEmailService{Emails: make([]SentEmail, 0)}
}

// Send captures the email and logs it for manual testing visibility.
func (m *MockEmailService) Send(to, templateName string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Emails = append(m.Emails, SentEmail{
		To:       to,
		Template: templateName,
		Data:     data,
	})

	log := obs.Pkg("email")
	switch d := data.(type) {
	case PasswordResetData:
		log.Info("mock_email", "to", to, "template", templateName, "link", d.Link, "expires_in", d.ExpiresIn)
	case WelcomeData:
		log.Info("mock_email", "to", to, "template", templateName, "name", d.Name)
	default:
		log.Info("mock_email", "to", to, "template", templateName)
	}
	return nil
}

// LastEmail returns the most recently sent email, or the zero value.
func (m *MockEmailService) LastEmail() SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Emails) == 0 {
		return SentEmail{}
	}
	return m.Emails[len(m.Emails)-1]
}

// Count returns the number of captured emails.
func (m *MockEmailService) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Emails)
}
