// Package bend synthesizes pitch-bend curves: one control point at every
// note onset, a Poisson number of extra points inside each note, and linear
// interpolation between them.
package bend

import (
	"math"
	"sort"

	"github.com/jsphweid/perturbdex/config"
	"github.com/jsphweid/perturbdex/dist"
	"github.com/jsphweid/perturbdex/model"
	"github.com/jsphweid/perturbdex/util"
	"github.com/pkg/errors"
)

func Validate(cfg config.Config) error {
	if !(cfg.PitchBendStd > 0) {
		return errors.Wrapf(dist.ErrInvalidDistributionParameters, "pitch bend std %v", cfg.PitchBendStd)
	}
	if !(cfg.PitchBendStep > 0) {
		return errors.Wrapf(dist.ErrInvalidDistributionParameters, "pitch bend step %v", cfg.PitchBendStep)
	}
	return nil
}

// monophonicView keeps a note only if it starts at or after the latest end
// seen so far.
func monophonicView(notes []model.Note) []model.Note {
	var res []model.Note
	lastEnd := math.Inf(-1)
	for _, n := range notes {
		if n.IsDegenerate() || n.Start < lastEnd {
			continue
		}
		res = append(res, n)
		lastEnd = n.End
	}
	return res
}

func clampBend(v float64) int {
	return util.Clamp(int(v), model.MinBend, model.MaxBend)
}

func (b *builder) draw() (int, error) {
	v, err := b.s.TruncNormal(b.cfg.PitchBendMean, b.cfg.PitchBendStd, model.MinBend, model.MaxBend)
	if err != nil {
		return 0, err
	}
	return clampBend(v), nil
}

type builder struct {
	cfg config.Config
	s   *dist.Sampler
}

func (b *builder) controlPoints(notes []model.Note) ([]model.PitchBendPoint, error) {
	var points []model.PitchBendPoint
	for _, n := range notes {
		v, err := b.draw()
		if err != nil {
			return nil, err
		}
		points = append(points, model.PitchBendPoint{Time: n.Start, Bend: v})

		extra := b.s.Poisson(b.cfg.PitchBendLambdaOccur * n.Duration())
		for i := 0; i < extra; i++ {
			v, err := b.draw()
			if err != nil {
				return nil, err
			}
			points = append(points, model.PitchBendPoint{Time: b.s.Uniform(n.Start, n.End), Bend: v})
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time < points[j].Time
	})
	return dedupe(points), nil
}

// dedupe collapses points sharing a time, keeping the last one.
func dedupe(points []model.PitchBendPoint) []model.PitchBendPoint {
	var res []model.PitchBendPoint
	for _, p := range points {
		if len(res) > 0 && res[len(res)-1].Time == p.Time {
			res[len(res)-1] = p
			continue
		}
		res = append(res, p)
	}
	return res
}

// Interpolate inserts points every step seconds between consecutive control
// points. Inserted times stay strictly between their endpoints.
func Interpolate(points []model.PitchBendPoint, step float64) []model.PitchBendPoint {
	if len(points) == 0 {
		return nil
	}
	res := make([]model.PitchBendPoint, 0, len(points))
	for i := 0; i < len(points)-1; i++ {
		left, right := points[i], points[i+1]
		res = append(res, left)
		gap := right.Time - left.Time
		for j := 1; ; j++ {
			t := left.Time + float64(j)*step
			if t >= right.Time {
				break
			}
			frac := (t - left.Time) / gap
			v := float64(left.Bend) + float64(right.Bend-left.Bend)*frac
			res = append(res, model.PitchBendPoint{Time: t, Bend: clampBend(math.Round(v))})
		}
	}
	return append(res, points[len(points)-1])
}

// SynthesizePitchBends builds the bend curve for t, stores it on the track
// and returns it.
func SynthesizePitchBends(t *model.Track, cfg config.Config, s *dist.Sampler) ([]model.PitchBendPoint, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	b := &builder{cfg: cfg, s: s}
	points, err := b.controlPoints(monophonicView(t.Notes))
	if err != nil {
		return nil, err
	}
	t.PitchBends = Interpolate(points, cfg.PitchBendStep)
	return t.PitchBends, nil
}
