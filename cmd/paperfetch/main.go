// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paperfetch CLI and service.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperfetch/internal/secrets"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback
// otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the paperfetch CLI.
var rootCmd = &cobra.Command{
	Use:   "paperfetch",
	Short: "Search academic indexes and retrieve paper PDFs",
	Long: `paperfetch searches an academic index for a topic, reports which candidate
papers have retrievable PDFs, and downloads them — one at a time or batched
into a single zip archive.

The serve subcommand runs the HTTP API the browser client talks to; search
and fetch expose the same operations on the command line.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paperfetch.yaml or ~/.config/paperfetch/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paperfetch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paperfetch"))
		}
	}

	viper.SetEnvPrefix("PAPERFETCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig merges the config file over the built-in defaults and fills
// API credentials from the secrets directory.
func loadConfig() types.Config {
	cfg := types.Defaults()

	if viper.IsSet("server.addr") {
		cfg.Server.Addr = viper.GetString("server.addr")
	}
	if viper.IsSet("search.backend") {
		cfg.Search.Backend = viper.GetString("search.backend")
	}
	if viper.IsSet("search.max_results") {
		cfg.Search.MaxResults = viper.GetInt("search.max_results")
	}
	if viper.IsSet("search.page_delay") {
		cfg.Search.PageDelay = viper.GetDuration("search.page_delay")
	}
	if viper.IsSet("search.timeout") {
		cfg.Search.Timeout = viper.GetDuration("search.timeout")
	}
	if viper.IsSet("search.user_agent") {
		cfg.Search.UserAgent = viper.GetString("search.user_agent")
	}
	if viper.IsSet("fetch.timeout") {
		cfg.Fetch.Timeout = viper.GetDuration("fetch.timeout")
	}
	if viper.IsSet("fetch.max_bytes") {
		cfg.Fetch.MaxBytes = viper.GetInt64("fetch.max_bytes")
	}
	if viper.IsSet("fetch.max_redirects") {
		cfg.Fetch.MaxRedirects = viper.GetInt("fetch.max_redirects")
	}
	if viper.IsSet("fetch.user_agent") {
		cfg.Fetch.UserAgent = viper.GetString("fetch.user_agent")
	}
	if viper.IsSet("archive.concurrency") {
		cfg.Archive.Concurrency = viper.GetInt("archive.concurrency")
	}
	if viper.IsSet("archive.build_timeout") {
		cfg.Archive.BuildTimeout = viper.GetDuration("archive.build_timeout")
	}

	cfg.Search.SemanticScholarAPIKey = secretDefault("semantic-scholar-api-key", viper.GetString("search.semantic_scholar_api_key"))
	cfg.Search.OpenAlexEmail = secretDefault("openalex-email", viper.GetString("search.openalex_email"))
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
