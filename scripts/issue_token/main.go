package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/noah-isme/calendar-booking-api/internal/service"
	"github.com/noah-isme/calendar-booking-api/pkg/config"
)

func main() {
	var (
		ownerID string
		email   string
		expiry  time.Duration
	)
	flag.StringVar(&ownerID, "owner", "", "Owner ID the token acts for")
	flag.StringVar(&email, "email", "", "Optional owner email claim")
	flag.DurationVar(&expiry, "expiry", 0, "Token lifetime (defaults to JWT_EXPIRATION)")
	flag.Parse()

	if ownerID == "" {
		log.Fatalf("-owner is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if expiry <= 0 {
		expiry = cfg.JWT.Expiration
	}

	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Expiry: expiry})
	token, expiresAt, err := tokens.IssueToken(ownerID, email)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}
	fmt.Println(token)
	log.Printf("expires at %s", expiresAt.Format(time.RFC3339))
}
