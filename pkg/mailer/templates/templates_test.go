package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderResetPassword(t *testing.T) {
	data := NewEmailData("go-session-auth", "bob@example.com",
		WithResetURL("https://auth.example.com/reset_password?token=abc"),
		WithIP("203.0.113.7"),
		WithUserAgent("curl/8.0"),
		WithTime(time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)),
	)

	subject, text, html, err := Render(ResetPassword, ToMap(data))
	require.NoError(t, err)
	assert.Equal(t, "go-session-auth: reset your password", subject)
	assert.Contains(t, text, "https://auth.example.com/reset_password?token=abc")
	assert.Contains(t, text, "Requested from 203.0.113.7 on 01 March 2026, 10:30 UTC.")
	assert.Contains(t, html, `href="https://auth.example.com/reset_password?token=abc"`)
	assert.Contains(t, html, "(curl/8.0)")
}

func TestRenderUsesCompanyName(t *testing.T) {
	data := NewEmailData("go-session-auth", "bob@example.com", WithCompany("Acme"))
	subject, text, _, err := Render(ResetPassword, ToMap(data))
	require.NoError(t, err)
	assert.Equal(t, "Acme: reset your password", subject)
	assert.NotContains(t, text, "Requested from")
}

func TestRenderEscapesHTML(t *testing.T) {
	data := NewEmailData("app", "<b>bob</b>@example.com")
	_, _, html, err := Render(ResetPassword, ToMap(data))
	require.NoError(t, err)
	assert.Contains(t, html, "&lt;b&gt;bob&lt;/b&gt;@example.com")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("no_such_template", nil)
	assert.Error(t, err)
}
