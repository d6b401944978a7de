// Package secrets resolves API keys and passwords: OS keychain first,
// environment variables as the fallback for headless machines and CI.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups this app's secrets in the OS keychain.
const KeyringService = "leadgen"

// Conventional env var names carried over from earlier tooling, honored
// after the LEADGEN_* form.
var compatEnv = map[string]string{
	"apollo": "APOLLO_API_KEY",
	"clay":   "CLAY_API_KEY",
}

func apiAccount(name string) string { return "leadgen:api:" + strings.ToLower(name) }

// APIKey returns the key for a named integration ("apollo", "clay"), or ""
// when none is configured. Lookup order: keychain, LEADGEN_<NAME>_API_KEY,
// then the integration's conventional env var.
func APIKey(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}

	if v, err := keyring.Get(KeyringService, apiAccount(name)); err == nil && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}

	env := "LEADGEN_" + strings.ToUpper(name) + "_API_KEY"
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v
	}
	if compat, ok := compatEnv[name]; ok {
		if v := strings.TrimSpace(os.Getenv(compat)); v != "" {
			return v
		}
	}
	return ""
}

func SetAPIKey(name, key string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("integration name is empty")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(KeyringService, apiAccount(name), key)
}

func DeleteAPIKey(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("integration name is empty")
	}
	return keyring.Delete(KeyringService, apiAccount(name))
}

// IMAPAccount names the keychain entry for a mailbox.
func IMAPAccount(username, host string) string {
	return fmt.Sprintf("leadgen:imap:%s@%s", username, host)
}

// IMAPPassword resolves the mailbox password: keychain entry for the
// account, then LEADGEN_IMAP_PASSWORD.
func IMAPPassword(username, host string) (string, error) {
	account := IMAPAccount(username, host)
	if pw, err := keyring.Get(KeyringService, account); err == nil && strings.TrimSpace(pw) != "" {
		return pw, nil
	}
	if pw := os.Getenv("LEADGEN_IMAP_PASSWORD"); strings.TrimSpace(pw) != "" {
		return pw, nil
	}
	return "", errors.New("imap password not found (set it in the keychain or via env)")
}

func SetIMAPPassword(username, host, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(host) == "" {
		return errors.New("imap account is incomplete")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, IMAPAccount(username, host), password)
}

func DeleteIMAPPassword(username, host string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(host) == "" {
		return errors.New("imap account is incomplete")
	}
	return keyring.Delete(KeyringService, IMAPAccount(username, host))
}
