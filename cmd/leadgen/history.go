package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"leadgen-engine/internal/store"
)

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "List recent runs",
	RunE:  runHistory,
}

var historyLimit int

func init() {
	historyCommand.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Runs to show")
	rootCmd.AddCommand(historyCommand)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	runs, err := store.ListRuns(context.Background(), db.Pool, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs yet")
		return nil
	}
	fmt.Printf("%-26s  %-19s  %-9s  %-8s  %-10s  %5s %5s %5s  %s\n",
		"ID", "STARTED", "STATUS", "SOURCE", "ICP", "FETCH", "SCORE", "EXP", "QUERY")
	for _, r := range runs {
		fmt.Printf("%-26s  %-19s  %-9s  %-8s  %-10s  %5d %5d %5d  %s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Status, r.Source, r.ICPName,
			r.Fetched, r.Scored, r.Exported, clip(r.Query, 40))
	}
	return nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
