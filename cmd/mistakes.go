package cmd

import (
	"context"

	"github.com/jsphweid/perturbdex/batch"
	"github.com/jsphweid/perturbdex/config"
	"github.com/jsphweid/perturbdex/dist"
	"github.com/jsphweid/perturbdex/model"
	"github.com/jsphweid/perturbdex/pipeline"
	"github.com/spf13/cobra"
)

var (
	fixedMistake string
	allowOverlap bool
	pitchBends   bool
)

func init() {
	mistakesCmd.Flags().StringVar(&fixedMistake, "fixed", "", "apply only this mistake kind: omit, pitch_error, extra_note or timing_shift")
	mistakesCmd.Flags().BoolVar(&allowOverlap, "allow-overlap", false, "leave overlapping notes in place")
	mistakesCmd.Flags().BoolVar(&pitchBends, "pitch-bends", false, "also synthesize pitch-bend curves")
	mistakesCmd.Flags().IntVarP(&maxFiles, "max", "n", 0, "process at most this many files (0 = all)")
	rootCmd.AddCommand(mistakesCmd)
}

var mistakesCmd = &cobra.Command{
	Use:   "mistakes <midi dir>",
	Short: "Injects performance mistakes",
	Long:  `Injects dropped notes, wrong pitches, extra notes and timing errors into every MIDI file under a directory.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := pipeline.CorruptOptions{PitchBends: pitchBends}
		if fixedMistake != "" {
			kind, err := model.ParseMistakeKind(fixedMistake)
			if err != nil {
				return err
			}
			opts.FixedKind = &kind
		}
		return runBatch(cmd, args[0], dist.StreamMistakes, func(cfg config.Config) batch.Job {
			opts.AllowOverlap = allowOverlap || cfg.AllowOverlap
			return func(ctx context.Context, p *pipeline.Perturber, score *model.Score) (model.Report, error) {
				return p.Corrupt(ctx, score, opts)
			}
		})
	},
}
