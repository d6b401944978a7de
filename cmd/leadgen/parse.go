package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"leadgen-engine/internal/query"
)

var parseCommand = &cobra.Command{
	Use:   "parse",
	Short: "Parse a query into filter criteria",
	Long:  "Runs only the query parser and prints the resulting filter spec as JSON.",
	RunE:  runParse,
}

var parseQuery string

func init() {
	parseCommand.Flags().StringVarP(&parseQuery, "query", "q", "", "Prospect query to parse")
	_ = parseCommand.MarkFlagRequired("query")
	rootCmd.AddCommand(parseCommand)
}

func runParse(cmd *cobra.Command, _ []string) error {
	spec := query.Parse(parseQuery)
	out, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode filter spec: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
