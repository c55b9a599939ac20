package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-session-auth/config"
	"github.com/oksasatya/go-session-auth/internal/container"
	"github.com/oksasatya/go-session-auth/internal/domain/entity"
	"github.com/oksasatya/go-session-auth/internal/domain/repository"
	"github.com/oksasatya/go-session-auth/pkg/redact"
)

// Prints every user as a field=value; record with personal data masked.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := newUserDataLogger()
	ctx := context.Background()

	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize infrastructure")
	}
	defer c.Close()

	lister, ok := c.Store.(repository.UserLister)
	if !ok {
		logger.Fatalf("store %q cannot list users", cfg.StoreDriver)
	}
	users, err := lister.ListAll(ctx)
	if err != nil {
		logger.WithError(err).Fatal("failed to list users")
	}
	for _, u := range users {
		logger.WithField("logger", "user_data").Info(userRecord(u))
	}
	logger.WithField("logger", "user_data").Infof("%d users", len(users))
}

func newUserDataLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(redact.NewFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableQuote: true}, redact.PIIFields))
	return logger
}

func userRecord(u *entity.User) string {
	var b strings.Builder
	field := func(name, value string) {
		fmt.Fprintf(&b, "%s=%s%s ", name, value, redact.Separator)
	}
	optional := func(v *string) string {
		if v == nil {
			return ""
		}
		return *v
	}
	field("id", fmt.Sprint(u.ID))
	field("email", u.Email)
	field("hashed_password", u.HashedPassword)
	field("session_id", optional(u.SessionID))
	field("reset_token", optional(u.ResetToken))
	field("created_at", u.CreatedAt.UTC().Format(time.RFC3339))
	field("updated_at", u.UpdatedAt.UTC().Format(time.RFC3339))
	return strings.TrimSpace(b.String())
}
