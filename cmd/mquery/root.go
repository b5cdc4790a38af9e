package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mquery-dev/api/internal/client"
)

// Set via -ldflags at build time
var version = "dev"

// rootCmd queries the platforms of a single image
var rootCmd = &cobra.Command{
	Use:           "mquery <image>",
	Short:         "Show which platforms a container image supports.",
	Long:          `mquery asks an mquery server whether an image is a manifest list and which OS/architecture pairs it supports.`,
	Version:       version,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	PreRunE:       setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("Must provide an image name as a command line parameter.")
		}
		entry, err := newClient().Query(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return client.PrintEntry(cmd.OutOrStdout(), viper.GetString("output"), args[0], entry)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.mquery.yaml)")
	rootCmd.PersistentFlags().StringP("server", "s", "http://localhost:8080", "mquery server URL")
	rootCmd.PersistentFlags().StringP("output", "o", client.OutputText, "output format: text, table or json")
	rootCmd.PersistentFlags().Duration("timeout", 60*time.Second, "request timeout")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	rootCmd.AddCommand(composeCmd, healthCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".mquery")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("MQUERY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// setup loads the config file and validates shared flags
func setup(cmd *cobra.Command, _ []string) error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	if output := viper.GetString("output"); !client.ValidOutput(output) {
		return fmt.Errorf("invalid output format %q", output)
	}
	return nil
}

func newClient() *client.Client {
	return client.New(viper.GetString("server"), viper.GetDuration("timeout"))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}
