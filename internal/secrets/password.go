package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"jobalert-engine/internal/config"
)

const (
	// Service groups the app's secrets in the OS keychain.
	KeyringService = "jobalert"
)

var ErrNoPassword = errors.New("SMTP password not found (set EMAIL_PASS or store it in the keychain)")

// SMTPPassword returns the password already on cfg (from the environment),
// falling back to the OS keychain.
func SMTPPassword(cfg config.Config) (string, error) {
	if pw := strings.TrimSpace(cfg.Notify.Password); pw != "" {
		return pw, nil
	}
	account := SMTPKeyringAccount(cfg)
	if account == "" {
		return "", ErrNoPassword
	}
	pw, err := keyring.Get(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoPassword
	}
	if err != nil {
		return "", fmt.Errorf("keychain %s: %w", account, err)
	}
	if strings.TrimSpace(pw) == "" {
		return "", ErrNoPassword
	}
	return pw, nil
}

func SetSMTPPassword(cfg config.Config, password string) error {
	account := SMTPKeyringAccount(cfg)
	if account == "" {
		return errors.New("smtp username is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, account, password)
}

func DeleteSMTPPassword(cfg config.Config) error {
	account := SMTPKeyringAccount(cfg)
	if account == "" {
		return errors.New("smtp username is empty")
	}
	return keyring.Delete(KeyringService, account)
}

func SMTPKeyringAccount(cfg config.Config) string {
	user := strings.TrimSpace(cfg.Notify.Username)
	if user == "" {
		return ""
	}
	return fmt.Sprintf("jobalert:smtp:%s@%s", user, cfg.Notify.SMTPHost)
}
