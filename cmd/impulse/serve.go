package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/drakos74/impulse/internal/metrics"
	"github.com/drakos74/impulse/internal/nudge"
	"github.com/drakos74/impulse/internal/provider"
	"github.com/drakos74/impulse/internal/registry"
	"github.com/drakos74/impulse/internal/server"
	"github.com/drakos74/impulse/internal/storage"
	json_storage "github.com/drakos74/impulse/internal/storage/file/json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var preload bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the http api",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := json_storage.BlobShard(cfg.StorageDir)(storage.ModelTable)
		if err != nil {
			return fmt.Errorf("could not create model storage: %w", err)
		}
		memory := provider.NewMemory()
		reg := registry.New(memory, cfg.Options(), store)

		if preload {
			if cfg.DemoDatasetPath == "" {
				return fmt.Errorf("demo dataset path is not configured")
			}
			txs, err := provider.LoadFile(cfg.DemoDatasetPath, provider.Options{MaxRows: cfg.MaxRows})
			if err != nil {
				return err
			}
			d := memory.Add(txs)
			reg.Register(d.ID)
			reg.Start(d.ID)
			log.Info().Str("dataset", d.ID).Str("path", cfg.DemoDatasetPath).Msg("preloaded demo dataset")
		}

		generator := cfg.Generator()
		if generator == nil {
			log.Warn().Msg("no generative api key configured, nudges come from the rule table")
		}
		api := server.NewAPI(reg, memory, nudge.NewService(generator, cfg.NudgeTimeout), server.Options{
			DemoPath: cfg.DemoDatasetPath,
			MaxRows:  cfg.MaxRows,
			Seed:     cfg.Seed,
			Debug:    cfg.Level() <= zerolog.DebugLevel,
		})

		srv := server.NewServer("impulse", cfg.Port).
			Add(api.Routes()...).
			Handle(server.Metrics, metrics.Handler())
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "port of the http api")
	serveCmd.Flags().BoolVar(&preload, "preload", false, "load and train the demo dataset on start")
	bind(serveCmd, "port", "port")
}
