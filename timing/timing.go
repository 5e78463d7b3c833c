package timing

import (
	"math"
	"sort"

	"github.com/jsphweid/perturbdex/config"
	"github.com/jsphweid/perturbdex/dist"
	"github.com/jsphweid/perturbdex/model"
	"github.com/jsphweid/perturbdex/timeline"
	"github.com/pkg/errors"
)

// Validate checks the expressive timing parameters.
func Validate(cfg config.Config) error {
	if !(cfg.ExpressiveTimingStdMs > 0) {
		return errors.Wrapf(dist.ErrInvalidDistributionParameters, "expressive timing std %v ms", cfg.ExpressiveTimingStdMs)
	}
	if !(cfg.ExpressiveTimingRangeMs > 0) {
		return errors.Wrapf(dist.ErrInvalidDistributionParameters, "expressive timing range %v ms", cfg.ExpressiveTimingRangeMs)
	}
	return nil
}

// Offset draws one timing offset in seconds, bounded to the configured
// clip range.
func Offset(cfg config.Config, s *dist.Sampler) (float64, error) {
	clip := cfg.ExpressiveTimingRangeMs
	ms, err := s.TruncNormal(cfg.ExpressiveTimingMeanMs, cfg.ExpressiveTimingStdMs, -clip, clip)
	if err != nil {
		return 0, err
	}
	return ms / 1000, nil
}

// Shift moves a note by offset seconds without letting it start before zero.
func Shift(n *model.Note, offset float64) {
	offset = math.Max(offset, -n.Start)
	n.Start += offset
	n.End += offset
}

// ApplyExpressiveTiming moves every note by an independent offset and then
// makes each track monophonic again. Notes clipped to nothing are dropped.
func ApplyExpressiveTiming(score *model.Score, cfg config.Config, s *dist.Sampler) (*model.Score, error) {
	if err := Validate(cfg); err != nil {
		return score, err
	}
	for _, t := range score.Tracks {
		for i := range t.Notes {
			offset, err := Offset(cfg, s)
			if err != nil {
				return score, err
			}
			Shift(&t.Notes[i], offset)
		}
		timeline.SortNotes(t)
		timeline.EnforceMonophony(t)
		timeline.DropDegenerate(t)
	}
	return score, nil
}

// ThirtySecondNote is the length of a thirty-second note at tempo, in seconds.
func ThirtySecondNote(tempo float64) float64 {
	return (1.0 / 8.0) / (tempo / 60.0)
}

// EstimateTempo guesses a tempo from a track's onsets by treating the median
// gap between distinct onsets as one beat.
func EstimateTempo(t *model.Track, fallback float64) float64 {
	var gaps []float64
	for i := 1; i < len(t.Notes); i++ {
		if gap := t.Notes[i].Start - t.Notes[i-1].Start; gap > 1e-6 {
			gaps = append(gaps, gap)
		}
	}
	if len(gaps) == 0 {
		return fallback
	}
	sort.Float64s(gaps)
	return 60 / gaps[len(gaps)/2]
}
