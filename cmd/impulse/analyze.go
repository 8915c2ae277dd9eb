package main

import (
	"fmt"

	"github.com/drakos74/impulse/internal/model"
	"github.com/drakos74/impulse/internal/nudge"
	"github.com/drakos74/impulse/internal/pipeline"
	"github.com/drakos74/impulse/internal/provider"
	"github.com/spf13/cobra"
)

var (
	analyzeFile   string
	analyzeCard   string
	analyzeNudges bool
)

type analysis struct {
	model.AnalyzeResult
	Nudges []model.Nudge `json:"nudges,omitempty"`
	Source nudge.Source  `json:"nudge_source,omitempty"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score and explain one card of a transaction file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		result, err := fit(cmd, analyzeFile)
		if err != nil {
			return err
		}
		r, err := result.Analyze(analyzeCard)
		if err != nil {
			return err
		}
		out := analysis{AnalyzeResult: r}
		if analyzeNudges {
			service := nudge.NewService(cfg.Generator(), cfg.NudgeTimeout)
			out.Nudges, out.Source = service.Nudges(ctx, nudge.NewSummary(r))
		}
		return write(cmd.OutOrStdout(), out)
	},
}

// fit loads the file and trains the pipeline on it.
func fit(cmd *cobra.Command, path string) (*pipeline.Result, error) {
	txs, err := provider.LoadFile(path, provider.Options{MaxRows: cfg.MaxRows})
	if err != nil {
		return nil, err
	}
	d := provider.NewMemory().Add(txs)
	result, err := pipeline.Train(cmd.Context(), d, cfg.Options())
	if err != nil {
		return nil, fmt.Errorf("could not train on '%s': %w", path, err)
	}
	return result, nil
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "transaction csv file")
	analyzeCmd.Flags().StringVarP(&analyzeCard, "card", "c", "", "card id to analyze")
	analyzeCmd.Flags().BoolVar(&analyzeNudges, "nudges", false, "include nudges")
	_ = analyzeCmd.MarkFlagRequired("file")
	_ = analyzeCmd.MarkFlagRequired("card")
}
