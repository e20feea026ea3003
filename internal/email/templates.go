package email

import (
	"bytes"
	"fmt"
	"html/template"
)

type renderedEmail struct {
	Subject string
	HTML    string
	Text    string
}

var passwordResetHTML = template.Must(template.New("password_reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, sans-serif; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2>Reset your password</h2>
  <p>We received a request to reset your HayatOS password. Click the button below to choose a new one.</p>
  <p style="margin: 24px 0;">
    <a href="{{.Link}}" style="background: #0d9488; color: #fff; padding: 12px 24px; border-radius: 6px; text-decoration: none;">Reset password</a>
  </p>
  <p>This link expires in {{.ExpiresIn}}. If you did not request a reset, you can ignore this email.</p>
</body>
</html>`))

var welcomeHTML = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, sans-serif; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2>Welcome to HayatOS{{if .Name}}, {{.Name}}{{end}}</h2>
  <p>Your account is ready. Notes, reminders, habits, and the rest of your day now live in one place.</p>
</body>
</html>`))

// renderTemplate renders the named template into subject, HTML, and plain text parts.
func renderTemplate(templateName string, data any) (renderedEmail, error) {
	switch templateName {
	case TemplatePasswordReset:
		d, ok := data.(PasswordResetData)
		if !ok {
			return renderedEmail{}, fmt.Errorf("template %s: expected PasswordResetData, got %T", templateName, data)
		}
		var buf bytes.Buffer
		if err := passwordResetHTML.Execute(&buf, d); err != nil {
			return renderedEmail{}, fmt.Errorf("render %s: %w", templateName, err)
		}
		text := fmt.Sprintf("Reset your HayatOS password: %s\n\nThis link expires in %s. If you did not request a reset, ignore this email.", d.Link, d.ExpiresIn)
		return renderedEmail{Subject: "Reset your HayatOS password", HTML: buf.String(), Text: text}, nil

	case TemplateWelcome:
		d, ok := data.(WelcomeData)
		if !ok {
			return renderedEmail{}, fmt.Errorf("template %s: expected WelcomeData, got %T", templateName, data)
		}
		var buf bytes.Buffer
		if err := welcomeHTML.Execute(&buf, d); err != nil {
			return renderedEmail{}, fmt.Errorf("render %s: %w", templateName, err)
		}
		text := "Welcome to HayatOS. Your account is ready."
		return renderedEmail{Subject: "Welcome to HayatOS", HTML: buf.String(), Text: text}, nil

	default:
		return renderedEmail{}, fmt.Errorf("unknown email template: %s", templateName)
	}
}
