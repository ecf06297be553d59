// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the tex-corpus CLI.
//
// The pipeline runs as subcommands: select picks paper ids from the arXiv
// metadata snapshot, fetch downloads their LaTeX sources, build guards the
// sources, detects each paper's main file and assembles the corpus, and
// assemble/publish rebuild or export a stored corpus.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built in PersistentPreRunE.
var logger = zap.NewNop()

// rootCmd is the base command for the tex-corpus CLI.
var rootCmd = &cobra.Command{
	Use:   "tex-corpus",
	Short: "Build a training corpus from arXiv LaTeX sources",
	Long: `tex-corpus turns per-paper LaTeX source trees into a training corpus.
For each paper it reads the source files, rejects oversized or sprawling
projects, picks the main file by its \title, abstract and document markers,
and writes one document per paper: the auxiliary files followed by the
main file.

Typical flow: select -> fetch -> build [--publish DIR].`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./tex-corpus.yaml or ~/.config/tex-corpus/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log every paper at debug level")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("tex-corpus")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "tex-corpus"))
		}
	}

	setDefaults(viper.GetViper())

	viper.SetEnvPrefix("TEX_CORPUS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
