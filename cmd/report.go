package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jsphweid/perturbdex/model"
	"github.com/jsphweid/perturbdex/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarizes run reports",
	Long:  `Reads every run report in the output directory and tallies the applied mistakes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := analyzeReports(outDir)
		if err != nil {
			return err
		}
		r.print()
		return nil
	},
}

type mistakesReport struct {
	numFiles      int64
	numTracks     int64
	numBends      int64
	byKind        map[model.MistakeKind]int64
	notableTiming int64
	tempos        []int64
}

var reportFileRegex = regexp.MustCompile(`\.mid(i)?\.report\.yaml$`)

func analyzeReports(dir string) (mistakesReport, error) {
	report := mistakesReport{byKind: make(map[model.MistakeKind]int64)}

	files, err := os.ReadDir(dir)
	if err != nil {
		return report, errors.Wrap(err, "Could not read dir")
	}

	for _, file := range files {
		filename := file.Name()
		if !reportFileRegex.MatchString(filename) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, filename))
		if err != nil {
			return report, errors.Wrapf(err, "read %v", filename)
		}
		var run model.Report
		if err := yaml.Unmarshal(data, &run); err != nil {
			return report, errors.Wrapf(err, "parse %v", filename)
		}

		report.numFiles += 1
		report.tempos = append(report.tempos, int64(run.Tempo))
		for _, t := range run.Tracks {
			report.numTracks += 1
			report.numBends += int64(t.NumBends)
			for _, m := range t.Mistakes {
				report.byKind[m.Kind] += 1
				if m.Kind == model.TimingShift && strings.Contains(m.Detail, "beyond") {
					report.notableTiming += 1
				}
			}
		}
	}
	return report, nil
}

func (r mistakesReport) print() {
	fmt.Printf("files: %v\n", r.numFiles)
	fmt.Printf("tracks: %v\n", r.numTracks)
	for _, kind := range model.MistakeKinds {
		fmt.Printf("%v: %v\n", kind, r.byKind[kind])
	}
	fmt.Printf("timing shifts beyond a thirty-second note: %v\n", r.notableTiming)
	fmt.Printf("pitch bend points: %v\n", r.numBends)
	if r.numFiles > 0 {
		fmt.Printf("mean tempo: %.1f\n", float64(util.Sum(r.tempos))/float64(r.numFiles))
	}
}
