package main

import (
	"github.com/drakos74/impulse/internal/model"
	"github.com/drakos74/impulse/internal/persona"
	"github.com/drakos74/impulse/internal/pipeline"
	"github.com/drakos74/impulse/internal/registry"
	"github.com/drakos74/impulse/internal/storage"
	json_storage "github.com/drakos74/impulse/internal/storage/file/json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	trainFile   string
	trainSample int
	trainStore  bool
)

type training struct {
	DatasetID string            `json:"dataset_id"`
	Insights  model.Insights    `json:"insights"`
	Personas  []persona.Cluster `json:"personas"`
	Users     []model.User      `json:"users,omitempty"`
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit the scores and personas of a transaction file and report the dataset insights",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := fit(cmd, trainFile)
		if err != nil {
			return err
		}
		out := training{
			DatasetID: result.DatasetID(),
			Insights:  result.Insights(),
			Personas:  result.Personas(),
		}
		if trainSample > 0 {
			out.Users = pipeline.Sample(result.Users(), trainSample, cfg.Seed)
		}
		if trainStore {
			store, err := json_storage.BlobShard(cfg.StorageDir)(storage.ModelTable)
			if err != nil {
				return err
			}
			key := storage.Key{Dataset: result.DatasetID(), Label: registry.ModelLabel}
			if err := store.Store(key, result.Model()); err != nil {
				return err
			}
			log.Info().Str("dataset", key.Dataset).Str("dir", cfg.StorageDir).Msg("stored model")
		}
		return write(cmd.OutOrStdout(), out)
	},
}

func init() {
	trainCmd.Flags().StringVarP(&trainFile, "file", "f", "", "transaction csv file")
	trainCmd.Flags().IntVar(&trainSample, "sample", 0, "include a stratified sample of users")
	trainCmd.Flags().BoolVar(&trainStore, "store", false, "store the fitted model under the storage directory")
	_ = trainCmd.MarkFlagRequired("file")
}
