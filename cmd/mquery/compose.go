package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mquery-dev/api/internal/client"
)

// composeCmd queries every image of a compose file
var composeCmd = &cobra.Command{
	Use:     "compose <file>",
	Short:   "Show supported platforms for every image in a Docker Compose file.",
	Args:    cobra.ExactArgs(1),
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readComposeFile(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		resp, err := newClient().QueryCompose(cmd.Context(), string(content))
		if err != nil {
			return err
		}
		return client.PrintCompose(cmd.OutOrStdout(), viper.GetString("output"), resp)
	},
}

// healthCmd shows which server instance answers
var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check the mquery server and print its instance ID.",
	Args:    cobra.NoArgs,
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info, err := newClient().Health(cmd.Context())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Server: %s\nAPI ID: %s\n", viper.GetString("server"), info.APIID)
		return err
	},
}

// readComposeFile reads path, or stdin when path is "-"
func readComposeFile(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read compose file: %w", err)
	}
	return content, nil
}
