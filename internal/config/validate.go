package config

import (
	"fmt"
	"path/filepath"
	"strings"
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

// NormalizeAndValidate returns a normalized copy plus anything wrong with
// it. Errors block a run; warnings are only reported.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.Source.Default = strings.ToLower(strings.TrimSpace(out.Source.Default))
	out.Enrichment.WebhookURL = strings.TrimSpace(out.Enrichment.WebhookURL)

	// Derived paths fall back to the data dir layout.
	if out.App.DataDir == "" {
		res.addErr("app.data_dir is required")
	}
	if out.App.OutputDir == "" {
		out.App.OutputDir = filepath.Join(out.App.DataDir, "out")
	}
	if out.App.ICPDir == "" {
		out.App.ICPDir = filepath.Join(out.App.DataDir, "icp")
	}

	if out.Source.Default != "" && !knownSource(out.Source.Default) {
		res.addErr("source.default %q is not one of %s",
			out.Source.Default, strings.Join(KnownSources, "|"))
	}
	if out.Source.Limit < 0 {
		res.addErr("source.limit must be >= 0")
	}
	if out.Source.Limit > 1000 {
		res.addWarn("source.limit is very high (%d); expect slow runs and API quota burn.", out.Source.Limit)
	}

	if out.Source.Apollo.PerPage < 0 || out.Source.Apollo.PerPage > 100 {
		res.addErr("source.apollo.per_page must be 0..100")
	}
	if out.Source.Apollo.MaxPages < 0 {
		res.addErr("source.apollo.max_pages must be >= 0")
	}

	// Mailbox completeness only matters when the mailbox source is selected;
	// password lives in the keychain, never here.
	if out.Source.Default == "mailbox" {
		if strings.TrimSpace(out.Source.Mailbox.IMAPHost) == "" {
			res.addErr("source.mailbox.imap_host is required when source.default=mailbox")
		}
		if out.Source.Mailbox.IMAPPort == 0 {
			res.addErr("source.mailbox.imap_port is required when source.default=mailbox")
		}
		if strings.TrimSpace(out.Source.Mailbox.Username) == "" {
			res.addErr("source.mailbox.username is required when source.default=mailbox")
		}
		if strings.TrimSpace(out.Source.Mailbox.Mailbox) == "" {
			res.addErr("source.mailbox.mailbox is required when source.default=mailbox")
		}
		if strings.TrimSpace(out.Source.Mailbox.Subject) == "" {
			res.addWarn("source.mailbox.subject is empty; every unseen message will be scanned for attachments.")
		}
	}

	if out.Enrichment.Workers < 0 {
		res.addErr("enrichment.workers must be >= 0")
	} else if out.Enrichment.Workers > 10 {
		res.addWarn("enrichment.workers is %d; the pool caps at 10.", out.Enrichment.Workers)
	}
	if out.Enrichment.TimeoutSeconds < 0 {
		res.addErr("enrichment.timeout_seconds must be >= 0")
	}
	if out.Enrichment.WebhookURL != "" && !strings.HasPrefix(out.Enrichment.WebhookURL, "http") {
		res.addErr("enrichment.webhook_url must be an http(s) URL")
	}

	if out.Export.TopN < 0 {
		res.addErr("export.top_n must be >= 0")
	}

	return out, res
}

func knownSource(name string) bool {
	for _, s := range KnownSources {
		if s == name {
			return true
		}
	}
	return false
}
