// Package config holds the app configuration: workspace paths, source
// settings, enrichment toggles, and export options. The on-disk form is
// YAML in the data dir, created on first run.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Source names accepted by source.default and the --source flag.
var KnownSources = []string{"apollo", "csv", "mock", "mailbox"}

type Config struct {
	App struct {
		DataDir   string `yaml:"data_dir"`
		OutputDir string `yaml:"output_dir"`
		ICPDir    string `yaml:"icp_dir"`
	} `yaml:"app"`

	Source struct {
		Default string `yaml:"default"` // apollo | csv | mock | mailbox
		Limit   int    `yaml:"limit"`

		Apollo struct {
			BaseURL  string `yaml:"base_url"`
			PerPage  int    `yaml:"per_page"`
			MaxPages int    `yaml:"max_pages"`
		} `yaml:"apollo"`

		Mailbox struct {
			IMAPHost    string `yaml:"imap_host"`
			IMAPPort    int    `yaml:"imap_port"`
			Username    string `yaml:"username"`
			Mailbox     string `yaml:"mailbox"`
			Subject     string `yaml:"subject"`
			MaxMessages int    `yaml:"max_messages"`
			MarkSeen    bool   `yaml:"mark_seen"`
		} `yaml:"mailbox"`
	} `yaml:"source"`

	Enrichment struct {
		WebhookURL     string `yaml:"webhook_url"`
		Workers        int    `yaml:"workers"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		PersonMatch    bool   `yaml:"person_match"`
		DomainLookup   bool   `yaml:"domain_lookup"`
	} `yaml:"enrichment"`

	Export struct {
		TopN int `yaml:"top_n"`
	} `yaml:"export"`
}

// Default returns the config written on first run, rooted at dataDir.
func Default(dataDir string) Config {
	var cfg Config
	cfg.App.DataDir = dataDir
	cfg.App.OutputDir = filepath.Join(dataDir, "out")
	cfg.App.ICPDir = filepath.Join(dataDir, "icp")

	cfg.Source.Default = "apollo"
	cfg.Source.Limit = 25
	cfg.Source.Apollo.BaseURL = "https://api.apollo.io/v1"
	cfg.Source.Apollo.PerPage = 25
	cfg.Source.Apollo.MaxPages = 20
	cfg.Source.Mailbox.IMAPPort = 993
	cfg.Source.Mailbox.Mailbox = "INBOX"
	cfg.Source.Mailbox.MaxMessages = 10
	cfg.Source.Mailbox.MarkSeen = true

	cfg.Enrichment.Workers = 5
	cfg.Enrichment.TimeoutSeconds = 15
	cfg.Enrichment.PersonMatch = true
	cfg.Enrichment.DomainLookup = true

	cfg.Export.TopN = 10
	return cfg
}

// DefaultDataDir is LEADGEN_DATA_DIR if set, else ~/.leadgen.
func DefaultDataDir() string {
	if dir := os.Getenv("LEADGEN_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".leadgen"
	}
	return filepath.Join(home, ".leadgen")
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// DBPath is the sqlite database location inside the data dir.
func (c Config) DBPath() string { return filepath.Join(c.App.DataDir, "leads.db") }

// LockPath is the run lock location inside the data dir.
func (c Config) LockPath() string { return filepath.Join(c.App.DataDir, "run.lock") }
