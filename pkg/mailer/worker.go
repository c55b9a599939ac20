package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oksasatya/go-session-auth/pkg/mailer/templates"
)

// ErrBadJob marks jobs that can never succeed and should not be redelivered.
var ErrBadJob = errors.New("bad email job")

// Handle decodes a queued EmailJob, renders its template if any and sends it.
// Errors wrapping ErrBadJob are permanent; any other error is worth a retry.
func Handle(ctx context.Context, s Sender, body []byte) error {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: %v", ErrBadJob, err)
	}
	if job.To == "" {
		return fmt.Errorf("%w: missing recipient", ErrBadJob)
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		var err error
		subject, text, html, err = templates.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadJob, err)
		}
	}
	if err := s.Send(ctx, job.To, subject, text, html); err != nil {
		return fmt.Errorf("send to mailgun: %w", err)
	}
	return nil
}
