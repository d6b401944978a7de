package pipeline

import (
	"fmt"
	"net"
	"strconv"

	"leadgen-engine/internal/config"
	"leadgen-engine/internal/enrich"
	"leadgen-engine/internal/secrets"
	"leadgen-engine/internal/source"
	"leadgen-engine/internal/source/apollo"
	"leadgen-engine/internal/source/csvfile"
	"leadgen-engine/internal/source/mailbox"
	"leadgen-engine/internal/source/mock"
	"leadgen-engine/internal/store"
)

// SourceFactory builds the lead source for a run. Tests swap it out to
// feed the pipeline canned leads.
type SourceFactory func(name string, cfg config.Config, opts Options) (source.Source, error)

func (o *Orchestrator) buildSource(name string, cfg config.Config, opts Options) (source.Source, error) {
	switch name {
	case source.NameMock:
		return mock.New(), nil
	case source.NameCSV:
		if opts.CSVPath == "" {
			return nil, fmt.Errorf("%w: csv source needs --csv path", source.ErrUnavailable)
		}
		return csvfile.New(csvfile.Config{Path: opts.CSVPath}), nil
	case source.NameApollo:
		return apollo.New(apollo.Config{
			BaseURL:  cfg.Source.Apollo.BaseURL,
			APIKey:   secrets.APIKey("apollo"),
			PerPage:  cfg.Source.Apollo.PerPage,
			MaxPages: cfg.Source.Apollo.MaxPages,
		}, o.limiter), nil
	case source.NameMailbox:
		mb := cfg.Source.Mailbox
		pw, err := secrets.IMAPPassword(mb.Username, mb.IMAPHost)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
		}
		return mailbox.New(mailbox.Config{
			Addr:        net.JoinHostPort(mb.IMAPHost, strconv.Itoa(mb.IMAPPort)),
			Username:    mb.Username,
			Password:    pw,
			Folder:      mb.Mailbox,
			Subject:     mb.Subject,
			MaxMessages: mb.MaxMessages,
			MarkSeen:    mb.MarkSeen,
		}), nil
	default:
		return nil, fmt.Errorf("unknown source %q", name)
	}
}

// buildProviders assembles the enrichment chain from config and whatever
// credentials are around. Missing keys drop a provider rather than fail
// the run.
func (o *Orchestrator) buildProviders(db *store.DB) []enrich.Provider {
	var providers []enrich.Provider
	if url := o.cfg.Enrichment.WebhookURL; url != "" {
		providers = append(providers, enrich.NewWebhook(url, secrets.APIKey("clay"), o.limiter))
	}
	if o.cfg.Enrichment.PersonMatch {
		if key := secrets.APIKey("apollo"); key != "" {
			providers = append(providers, enrich.NewPersonMatch(o.cfg.Source.Apollo.BaseURL, key, o.limiter))
		}
	}
	if o.cfg.Enrichment.DomainLookup {
		dl := enrich.NewDomainLookup(o.limiter)
		if db != nil {
			dl.SetCache(store.DomainCache{DB: db.Pool})
		}
		providers = append(providers, dl)
	}
	return providers
}
