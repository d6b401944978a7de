package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"leadgen-engine/internal/domain"
	"leadgen-engine/internal/events"
	"leadgen-engine/internal/pipeline"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Execute one lead generation run",
	Long: `Parses the query, fetches leads from the configured source, enriches,
scores and exports them. Stage progress goes to stderr; --json prints the
full run report on stdout.`,
	RunE: runPipeline,
}

var (
	runQuery      string
	runICP        string
	runSource     string
	runCSVPath    string
	runLimit      int
	runDryRun     bool
	runSkipEnrich bool
	runSkipExport bool
	runJSON       bool
)

func init() {
	runCommand.Flags().StringVarP(&runQuery, "query", "q", "", "Prospect query, e.g. \"Find CTOs at SaaS startups\"")
	runCommand.Flags().StringVar(&runICP, "icp", "", "Named ICP bundle to score against")
	runCommand.Flags().StringVar(&runSource, "source", "", "Lead source: apollo, csv, mock or mailbox (default from config)")
	runCommand.Flags().StringVar(&runCSVPath, "csv", "", "CSV file to import (csv source only)")
	runCommand.Flags().IntVarP(&runLimit, "limit", "n", 0, "Max leads to fetch (default from config)")
	runCommand.Flags().BoolVar(&runDryRun, "dry-run", false, "Mock source, no enrichment, zero network")
	runCommand.Flags().BoolVar(&runSkipEnrich, "skip-enrichment", false, "Skip the enrichment stage")
	runCommand.Flags().BoolVar(&runSkipExport, "skip-export", false, "Skip artifact export")
	runCommand.Flags().BoolVar(&runJSON, "json", false, "JSON output: report on stdout, progress events on stderr")
	rootCmd.AddCommand(runCommand)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := events.NewHub()
	sub := hub.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range sub {
			if runJSON {
				fmt.Fprintln(os.Stderr, ev.JSON())
				continue
			}
			fmt.Fprintf(os.Stderr, "  %s\n", ev.String())
		}
	}()

	o := pipeline.New(cfg, hub)
	run, runErr := o.Run(ctx, pipeline.Options{
		Query:          runQuery,
		ICPName:        runICP,
		Source:         runSource,
		CSVPath:        runCSVPath,
		Limit:          runLimit,
		DryRun:         runDryRun,
		SkipEnrichment: runSkipEnrich,
		SkipExport:     runSkipExport,
	})
	hub.Unsubscribe(sub)
	<-done

	if runJSON {
		out, err := json.MarshalIndent(run, "", "  ")
		if err != nil {
			return fmt.Errorf("encode run report: %w", err)
		}
		fmt.Println(string(out))
		return runErr
	}
	printRun(run)
	return runErr
}

func printRun(run *domain.Run) {
	fmt.Printf("run %s %s (%s, source=%s, icp=%s)\n",
		run.ID, run.Status, run.Mode, run.Source, run.ICPName)
	st := run.Stats
	fmt.Printf("  fetched=%d skipped=%d enriched=%d failed=%d scored=%d exported=%d\n",
		st.Fetched, st.Skipped, st.Enriched, st.EnrichmentFailed, st.Scored, st.Exported)
	if run.Error != nil {
		fmt.Printf("  error at %s: %s\n", run.Error.Stage, run.Error.Message)
	}
	for i := range run.Leads {
		if i == 10 {
			fmt.Printf("  ... %d more\n", len(run.Leads)-10)
			break
		}
		l := run.Leads[i]
		fmt.Printf("  %2d. %s (%s at %s) score %d %s\n",
			i+1, l.DisplayName(), orUnknown(l.Title), orUnknown(l.Company),
			l.FitScore, domain.FitLabel(l.FitScore))
	}
	for _, ref := range run.Artifacts {
		if ref.Err != "" {
			fmt.Printf("  artifact %s failed: %s\n", ref.Name, ref.Err)
			continue
		}
		fmt.Printf("  wrote %s\n", ref.Path)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
