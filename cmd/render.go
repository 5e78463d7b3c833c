package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jsphweid/perturbdex/constants"
	"github.com/jsphweid/perturbdex/midi"
	"github.com/jsphweid/perturbdex/pipeline"
	"github.com/jsphweid/perturbdex/synth"
	"github.com/jsphweid/perturbdex/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var soundFontPath string

func init() {
	renderCmd.Flags().StringVar(&soundFontPath, "soundfont", constants.GetSoundFontPath(), "SoundFont (.sf2) used to render stems")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render <midi file>",
	Short: "Renders one WAV stem per track",
	Long:  `Renders each track of a (perturbed) MIDI file into its own WAV stem with a SoundFont.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path := soundFontPath
		if path == "" {
			path = cfg.SoundFontPath
		}
		if path == "" {
			return errors.New("no soundfont given (--soundfont, SOUNDFONT_PATH or soundfont_path)")
		}
		service, err := synth.NewSoundFont(path, cfg.SampleRate)
		if err != nil {
			return err
		}

		score, err := midi.ReadMidiFile(args[0])
		if err != nil {
			return err
		}
		p := pipeline.New(cfg, cfg.Seed, nil, pipeline.WithLogger(logger()), pipeline.WithSynth(service))
		stems, err := p.Render(context.Background(), score)
		if err != nil {
			return err
		}

		if err := util.EnsureOutputDir(outDir); err != nil {
			return err
		}
		base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		for i, stem := range stems {
			name := fmt.Sprintf("%v_%d_%v.wav", base, i, strings.ReplaceAll(stem.Name, "/", "_"))
			if err := synth.WriteStem(filepath.Join(outDir, name), stem); err != nil {
				return err
			}
			fmt.Printf("wrote %v\n", name)
		}
		return nil
	},
}
