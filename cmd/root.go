package cmd

import (
	"log/slog"
	"os"

	"github.com/jsphweid/perturbdex/config"
	"github.com/jsphweid/perturbdex/constants"
	"github.com/jsphweid/perturbdex/dist"
	"github.com/jsphweid/perturbdex/util"
	"github.com/spf13/cobra"
)

var (
	configPath string
	outDir     string
	seed       uint64
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "perturbdex",
	Short: "Corrupts clean scores into imperfect performances",
	Long: `perturbdex takes clean, quantized multi-track MIDI scores and stochastically
corrupts them (tempo, ensemble, expressive timing, mistakes and pitch bends)
to produce training data for performance models.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", constants.GetConfigPath(), "YAML augmentation config")
	rootCmd.PersistentFlags().StringVar(&outDir, "out", constants.GetOutDir(), "output directory")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "base random seed (overrides the config seed; a fresh one is drawn when neither is set)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	switch {
	case cmd.Flags().Changed("seed"):
		cfg.Seed = seed
	case cfg.Seed == 0:
		cfg.Seed = dist.NewSeed()
		logger().Info("drew seed", "seed", cfg.Seed)
	}
	return cfg, nil
}

func logger() *slog.Logger {
	return util.NewLogger(os.Stderr, verbose)
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
