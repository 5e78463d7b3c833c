package cmd

import (
	"context"

	"github.com/jsphweid/perturbdex/batch"
	"github.com/jsphweid/perturbdex/config"
	"github.com/jsphweid/perturbdex/dist"
	"github.com/jsphweid/perturbdex/ensemble"
	"github.com/jsphweid/perturbdex/model"
	"github.com/jsphweid/perturbdex/pipeline"
	"github.com/jsphweid/perturbdex/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	ensembleName string
	maxFiles     int
)

func init() {
	augmentCmd.Flags().StringVarP(&ensembleName, "ensemble", "e", string(model.StringEnsemble), "ensemble kind: string, brass, woodwind or random")
	augmentCmd.Flags().IntVarP(&maxFiles, "max", "n", 0, "process at most this many files (0 = all)")
	rootCmd.AddCommand(augmentCmd)
}

var augmentCmd = &cobra.Command{
	Use:   "augment <midi dir>",
	Short: "Assigns ensemble and tempo and applies expressive timing",
	Long:  `Assigns an ensemble and a random tempo to every MIDI file under a directory and applies expressive timing.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := model.EnsembleKind(ensembleName)
		if !ensemble.IsSupported(kind) {
			return errors.Wrapf(ensemble.ErrUnsupportedEnsembleKind, "%q", ensembleName)
		}
		return runBatch(cmd, args[0], dist.StreamAugment, func(config.Config) batch.Job {
			return func(ctx context.Context, p *pipeline.Perturber, score *model.Score) (model.Report, error) {
				return p.Augment(ctx, score, kind)
			}
		})
	},
}

func runBatch(cmd *cobra.Command, dir string, stream dist.Stream, makeJob func(config.Config) batch.Job) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := util.EnsureOutputDir(outDir); err != nil {
		return err
	}
	paths, err := util.GatherAllMidiPaths(dir, maxFiles)
	if err != nil {
		return err
	}
	runner := batch.NewRunner(cfg, outDir, logger())
	runner.Stream = stream
	if err := runner.SaveConfig(); err != nil {
		return err
	}
	summary := runner.ProcessAll(context.Background(), paths, makeJob(cfg))
	cmd.Println(summary.String())
	return nil
}
