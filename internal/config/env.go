package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env files if present; missing files are not an error.
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			log.Printf("[config] .env %s: %v", p, err)
		}
	}
}

// OverlayEnv applies deployment secrets and overrides from the process
// environment. Environment wins over the file.
func OverlayEnv(cfg *Config, getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&cfg.Notify.Username, "EMAIL_USER", "SMTP_USERNAME")
	set(&cfg.Notify.Password, "EMAIL_PASS", "SMTP_PASSWORD")
	set(&cfg.Notify.Recipient, "RECIPIENT_EMAIL")
	set(&cfg.Notify.From, "EMAIL_FROM")
	set(&cfg.Notify.SMTPHost, "SMTP_HOST")
	set(&cfg.Companies.Path, "JOBALERT_COMPANIES")
	set(&cfg.Store.Path, "JOBALERT_STORE")

	if v := strings.TrimSpace(getenv("SMTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Notify.SMTPPort = n
		} else {
			log.Printf("[config] ignoring SMTP_PORT=%q: %v", v, err)
		}
	}

	if cfg.Notify.From == "" {
		cfg.Notify.From = cfg.Notify.Username
	}
}
