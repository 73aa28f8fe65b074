package config

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

func (v Validation) Error() string {
	return "config validation failed:\n- " + strings.Join(v.Errors, "\n- ")
}

var keyStrategies = map[string]bool{"company_title_url": true, "url": true, "company_title": true}

// NormalizeAndValidate returns a normalized copy of cfg plus any problems.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Filters.Countries = trimList(out.Filters.Countries)
	out.Filters.TitleAny = trimList(out.Filters.TitleAny)
	out.Filters.TitleBlock = trimList(out.Filters.TitleBlock)
	out.Store.Driver = strings.ToLower(strings.TrimSpace(out.Store.Driver))
	out.Notify.Recipient = strings.TrimSpace(out.Notify.Recipient)

	if strings.TrimSpace(out.Companies.Path) == "" {
		res.addErr("companies.path is required")
	}

	// fetch sanity
	if out.Fetch.Concurrency <= 0 {
		res.addErr("fetch.concurrency must be > 0")
	} else if out.Fetch.Concurrency > 32 {
		res.addWarn("fetch.concurrency is high (%d); career sites may rate-limit you.", out.Fetch.Concurrency)
	}
	if out.Fetch.TimeoutSeconds <= 0 {
		res.addErr("fetch.timeout_seconds must be > 0")
	}
	if out.Fetch.Retries < 0 {
		res.addErr("fetch.retries must be >= 0")
	}
	if out.Fetch.RequestsPerSecond < 0 {
		res.addErr("fetch.requests_per_second must be >= 0")
	} else if out.Fetch.RequestsPerSecond == 0 {
		res.addWarn("fetch.requests_per_second is 0; per-host rate limiting is disabled.")
	}

	switch out.Store.Driver {
	case "json", "sqlite":
	default:
		res.addErr("store.driver must be json or sqlite, got %q", out.Store.Driver)
	}
	if strings.TrimSpace(out.Store.Path) == "" {
		res.addErr("store.path is required")
	}
	if out.Store.LockTimeoutSeconds < 0 {
		res.addErr("store.lock_timeout_seconds must be >= 0")
	}

	if !keyStrategies[out.Keys.Strategy] {
		res.addErr("keys.strategy %q is not one of company_title_url, url, company_title", out.Keys.Strategy)
	}

	if len(out.Filters.Countries) == 0 {
		res.addWarn("filters.countries is empty; postings from every country will be reported.")
	}
	if len(out.Filters.TitleAny) == 0 {
		res.addWarn("filters.title_any is empty; every title will be reported.")
	}

	// notify
	if out.Notify.SMTPPort <= 0 || out.Notify.SMTPPort > 65535 {
		res.addErr("notify.smtp_port must be 1..65535")
	}
	if out.Notify.Recipient == "" {
		res.addWarn("notify.recipient is empty (set RECIPIENT_EMAIL).")
	} else if _, err := mail.ParseAddress(out.Notify.Recipient); err != nil {
		res.addErr("notify.recipient %q is not a valid address", out.Notify.Recipient)
	}
	if out.Notify.Username == "" {
		res.addWarn("notify.username is empty (set EMAIL_USER).")
	}

	if _, err := time.Parse("15:04", out.Schedule.DailyAt); err != nil {
		res.addErr("schedule.daily_at must be HH:MM, got %q", out.Schedule.DailyAt)
	}
	out.Schedule.Every = strings.TrimSpace(out.Schedule.Every)
	if out.Schedule.Every != "" {
		if d, err := time.ParseDuration(out.Schedule.Every); err != nil {
			res.addErr("schedule.every must be a duration like 6h, got %q", out.Schedule.Every)
		} else if d < time.Minute {
			res.addErr("schedule.every must be at least 1m")
		}
	}
	if _, err := time.LoadLocation(out.Schedule.Timezone); err != nil {
		res.addErr("schedule.timezone %q: %v", out.Schedule.Timezone, err)
	}

	return out, res
}
