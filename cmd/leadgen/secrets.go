package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"leadgen-engine/internal/secrets"
)

var secretsCommand = &cobra.Command{
	Use:   "secrets",
	Short: "Manage API keys and the IMAP password",
	Long: `Keys live in the OS keychain under the "leadgen" service. The
LEADGEN_<NAME>_API_KEY environment variables act as a fallback on
machines without a keychain.`,
}

var secretsSetCommand = &cobra.Command{
	Use:   "set <name> [key]",
	Short: "Store an API key (reads stdin when the key is omitted)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSecretsSet,
}

var secretsDeleteCommand = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runSecretsDelete,
}

var secretsSetIMAPCommand = &cobra.Command{
	Use:   "set-imap [password]",
	Short: "Store the password for the configured IMAP account",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSecretsSetIMAP,
}

var secretsDeleteIMAPCommand = &cobra.Command{
	Use:   "delete-imap",
	Short: "Remove the IMAP password",
	Args:  cobra.NoArgs,
	RunE:  runSecretsDeleteIMAP,
}

func init() {
	secretsCommand.AddCommand(secretsSetCommand, secretsDeleteCommand,
		secretsSetIMAPCommand, secretsDeleteIMAPCommand)
	rootCmd.AddCommand(secretsCommand)
}

func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read secret: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("empty secret")
	}
	return line, nil
}

func runSecretsSet(cmd *cobra.Command, args []string) error {
	name := args[0]
	key := ""
	if len(args) == 2 {
		key = args[1]
	} else {
		var err error
		key, err = readSecret(fmt.Sprintf("API key for %s: ", name))
		if err != nil {
			return err
		}
	}
	if err := secrets.SetAPIKey(name, key); err != nil {
		return err
	}
	fmt.Printf("stored api key for %s\n", strings.ToLower(name))
	return nil
}

func runSecretsDelete(cmd *cobra.Command, args []string) error {
	if err := secrets.DeleteAPIKey(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted api key for %s\n", strings.ToLower(args[0]))
	return nil
}

// imapAccount pulls the mailbox identity out of config so the password
// lands under the same keychain account the poller reads.
func imapAccount() (username, host string, err error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", "", err
	}
	mb := cfg.Source.Mailbox
	if mb.Username == "" || mb.IMAPHost == "" {
		return "", "", fmt.Errorf("set source.mailbox.imap_host and username in config first")
	}
	return mb.Username, mb.IMAPHost, nil
}

func runSecretsSetIMAP(cmd *cobra.Command, args []string) error {
	username, host, err := imapAccount()
	if err != nil {
		return err
	}
	pw := ""
	if len(args) == 1 {
		pw = args[0]
	} else {
		pw, err = readSecret(fmt.Sprintf("IMAP password for %s@%s: ", username, host))
		if err != nil {
			return err
		}
	}
	if err := secrets.SetIMAPPassword(username, host, pw); err != nil {
		return err
	}
	fmt.Printf("stored imap password for %s@%s\n", username, host)
	return nil
}

func runSecretsDeleteIMAP(cmd *cobra.Command, _ []string) error {
	username, host, err := imapAccount()
	if err != nil {
		return err
	}
	if err := secrets.DeleteIMAPPassword(username, host); err != nil {
		return err
	}
	fmt.Printf("deleted imap password for %s@%s\n", username, host)
	return nil
}
