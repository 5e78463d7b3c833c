package cmd

import (
	"fmt"

	"github.com/jsphweid/perturbdex/midi"
	"github.com/jsphweid/perturbdex/timeline"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <midi file>",
	Short: "Inspects a score",
	Long:  `Prints tempo, tracks and invariant checks for a MIDI file.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := midi.ReadMidiFile(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("tempo: %v\n", score.Tempo)
		fmt.Printf("resolution: %v\n", score.Resolution)
		for _, t := range score.Tracks {
			fmt.Printf("track: %v (program %v)\n", t.Name, t.Program)
			fmt.Printf("  notes: %v, end: %.3fs\n", len(t.Notes), t.EndTime())
			fmt.Printf("  sorted: %v, monophonic: %v\n", timeline.IsSorted(t), timeline.IsMonophonic(t))
		}
		return nil
	},
}
