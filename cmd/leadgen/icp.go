package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"leadgen-engine/internal/icp"
)

var icpCommand = &cobra.Command{
	Use:   "icp",
	Short: "Inspect ICP bundles",
	Long:  "Bundles live in <data-dir>/icp as YAML; built-ins are always present.",
}

var icpListCommand = &cobra.Command{
	Use:   "list",
	Short: "List available bundles",
	RunE:  runICPList,
}

var icpShowCommand = &cobra.Command{
	Use:   "show <name>",
	Short: "Print one bundle as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runICPShow,
}

func init() {
	icpCommand.AddCommand(icpListCommand, icpShowCommand)
	rootCmd.AddCommand(icpCommand)
}

func loadRegistry() (*icp.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	reg := icp.NewRegistry()
	if err := reg.LoadDir(cfg.App.ICPDir); err != nil {
		return nil, err
	}
	return reg, nil
}

func runICPList(cmd *cobra.Command, _ []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	for _, name := range reg.Names() {
		c, err := reg.Get(name)
		if err != nil {
			return err
		}
		fmt.Printf("%-16s %s\n", name, c.Description)
	}
	return nil
}

func runICPShow(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	c, err := reg.Get(args[0])
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
