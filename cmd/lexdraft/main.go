// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the lexdraft CLI.
// Subcommands browse templates, run questionnaires, generate documents, and
// manage the document store; serve exposes the same operations over HTTP.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/lexdraft/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the lexdraft CLI.
var rootCmd = &cobra.Command{
	Use:   "lexdraft",
	Short: "Draft legal documents from guided questionnaires",
	Long: `lexdraft walks a user through a template's questionnaire, validates the
answers step by step, and generates the document text from fixed section
templates. Generated documents are kept in a local SQLite store where they
can be reviewed, duplicated, signed, and exported as Markdown.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/", os.Stderr)
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./lexdraft.yaml or ~/.config/lexdraft/lexdraft.yaml)")
}

func initConfig() {
	// A missing .env is fine; variables already set win.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("lexdraft")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "lexdraft"))
		}
	}

	setDefaults()
	viper.SetEnvPrefix("LEXDRAFT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
