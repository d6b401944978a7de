// config/overlay.go
package config

import "os"

// OverlayEnv applies environment overrides on top of file values. Only
// secrets-adjacent settings are overridable this way; everything else
// belongs in the file or on the command line.
func OverlayEnv(cfg *Config) {
	if v := os.Getenv("LEADGEN_WEBHOOK_URL"); v != "" {
		cfg.Enrichment.WebhookURL = v
	} else if v := os.Getenv("CLAY_WEBHOOK_URL"); v != "" {
		// Name carried over from earlier tooling.
		cfg.Enrichment.WebhookURL = v
	}
	if v := os.Getenv("LEADGEN_APOLLO_BASE_URL"); v != "" {
		cfg.Source.Apollo.BaseURL = v
	}
	if v := os.Getenv("LEADGEN_IMAP_HOST"); v != "" {
		cfg.Source.Mailbox.IMAPHost = v
	}
	if v := os.Getenv("LEADGEN_IMAP_USERNAME"); v != "" {
		cfg.Source.Mailbox.Username = v
	}
}
