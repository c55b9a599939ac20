package mailer

import (
	"net/url"

	"github.com/oksasatya/go-session-auth/pkg/mailer/templates"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template (+Data) or Subject/Text/HTML is set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// ResetLink appends the token to baseURL as the "token" query parameter.
func ResetLink(baseURL, token string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// NewResetPasswordJob builds the job for the reset_password template.
func NewResetPasswordJob(data templates.EmailData) EmailJob {
	return EmailJob{To: data.Email, Template: templates.ResetPassword, Data: templates.ToMap(data)}
}
