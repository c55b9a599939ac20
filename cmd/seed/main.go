package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-session-auth/config"
	"github.com/oksasatya/go-session-auth/internal/application"
	"github.com/oksasatya/go-session-auth/internal/container"
	"github.com/oksasatya/go-session-auth/pkg/helpers"
)

func main() {
	email := flag.String("email", "bob@example.com", "email of the demo user")
	password := flag.String("password", "password123", "password of the demo user")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.RedactFields())

	ctx := context.Background()
	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialize infrastructure: %v", err)
	}
	defer c.Close()

	u, err := c.AuthService().RegisterUser(ctx, *email, *password)
	switch {
	case errors.Is(err, application.ErrAlreadyExists):
		fmt.Printf("user %s already exists\n", *email)
	case err != nil:
		log.Fatalf("failed to seed user: %v", err)
	default:
		fmt.Printf("seeded user: id=%d email=%s\n", u.ID, u.Email)
	}
}
