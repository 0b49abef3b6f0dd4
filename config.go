package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// config is read once at startup from the environment (after .env is loaded).
type config struct {
	DBURL            string
	Port             string
	RiskStore        string // "memory" or "postgres"
	SubmitDelay      time.Duration
	RequireSelection bool
	AMQPURL          string
	RiskEventsQueue  string
	AllowOrigins     []string
}

// loadConfig reads and validates settings. Unset optional values fall back to
// defaults; malformed values are an error so a typo fails startup loudly.
func loadConfig() (config, error) {
	cfg := config{
		DBURL:           os.Getenv("DB_URL"),
		Port:            envOr("PORT", "3000"),
		RiskStore:       envOr("RISK_STORE", "memory"),
		SubmitDelay:     1500 * time.Millisecond,
		AMQPURL:         os.Getenv("AMQP_URL"),
		RiskEventsQueue: envOr("RISK_EVENTS_QUEUE", "risk_assessments"),
		AllowOrigins:    []string{"*"},
	}

	if cfg.DBURL == "" {
		return cfg, fmt.Errorf("DB_URL is required")
	}
	if cfg.RiskStore != "memory" && cfg.RiskStore != "postgres" {
		return cfg, fmt.Errorf("RISK_STORE must be memory or postgres, got %q", cfg.RiskStore)
	}
	if s := os.Getenv("SUBMIT_DELAY"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d < 0 {
			return cfg, fmt.Errorf("invalid SUBMIT_DELAY %q", s)
		}
		cfg.SubmitDelay = d
	}
	if s := os.Getenv("REQUIRE_RISK_SELECTION"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return cfg, fmt.Errorf("invalid REQUIRE_RISK_SELECTION %q", s)
		}
		cfg.RequireSelection = b
	}
	if s := os.Getenv("CORS_ALLOW_ORIGINS"); s != "" {
		cfg.AllowOrigins = nil
		for _, o := range strings.Split(s, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowOrigins = append(cfg.AllowOrigins, o)
			}
		}
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
