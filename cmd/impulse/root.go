package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/drakos74/impulse/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	v       = config.New()
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "impulse",
	Short: "Impulse spending analytics over card transactions",
	Long: `Impulse scores card holders for impulsive spending behaviour.

It extracts behavioural features from transaction histories, combines them
into an explainable 0-100 score, groups users into personas and suggests
nudges, either through the http api or directly from the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ReadFile(v, cfgFile); err != nil {
			return err
		}
		c, err := config.Load(v)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = c
		zerolog.SetGlobalLevel(cfg.Level())
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "log level")
	rootCmd.PersistentFlags().Int("workers", 0, "feature extraction workers (default GOMAXPROCS)")
	rootCmd.PersistentFlags().Int("clusters", 0, "number of personas")
	rootCmd.PersistentFlags().Int64("seed", 0, "seed of the persona clustering and user sampling")

	bind(rootCmd, "log_level", "log-level")
	bind(rootCmd, "workers", "workers")
	bind(rootCmd, "clusters", "clusters")
	bind(rootCmd, "seed", "seed")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(trainCmd)
}

// bind lets an explicitly set flag override the configuration key.
func bind(cmd *cobra.Command, key, flag string) {
	f := cmd.PersistentFlags().Lookup(flag)
	if f == nil {
		f = cmd.Flags().Lookup(flag)
	}
	if err := v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("could not bind flag '%s': %v", flag, err))
	}
}

func write(w io.Writer, value interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
