package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPasswordReset(t *testing.T) {
	r, err := renderTemplate(TemplatePasswordReset, PasswordResetData{
		Link:      "https://example.com/reset?token=abc",
		ExpiresIn: "1 hour",
	})
	require.NoError(t, err)
	assert.Equal(t, "Reset your HayatOS password", r.Subject)
	assert.Contains(t, r.HTML, "https://example.com/reset?token=abc")
	assert.Contains(t, r.Text, "https://example.com/reset?token=abc")
	assert.Contains(t, r.Text, "1 hour")
}

func TestRenderRejectsWrongData(t *testing.T) {
	_, err := renderTemplate(TemplatePasswordReset, WelcomeData{Name: "x"})
	assert.Error(t, err)
	_, err = renderTemplate("unknown", nil)
	assert.Error(t, err)
}

func TestMockCapturesEmails(t *testing.T) {
	m := NewMockEmailService()
	require.NoError(t, m.Send("a@example.com", TemplateWelcome, WelcomeData{Name: "Amina"}))
	require.NoError(t, m.Send("a@example.com", TemplatePasswordReset, PasswordResetData{Link: "l", ExpiresIn: "1 hour"}))

	assert.Equal(t, 2, m.Count())
	last := m.LastEmail()
	assert.Equal(t, TemplatePasswordReset, last.Template)
	assert.Equal(t, "a@example.com", last.To)
}
