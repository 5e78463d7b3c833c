package mistake

import (
	"testing"

	"github.com/jsphweid/perturbdex/config"
	"github.com/jsphweid/perturbdex/dist"
	"github.com/jsphweid/perturbdex/model"
	"github.com/jsphweid/perturbdex/timeline"
	"github.com/jsphweid/perturbdex/util"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInjector(cfg config.Config, seed uint64) *Injector {
	return New(cfg, dist.New(seed), util.DiscardLogger())
}

func fixed(kind model.MistakeKind, n int) Options {
	return Options{FixedKind: &kind, Occurrences: &n, Tempo: 120}
}

func assertWellFormed(t *testing.T, tr *model.Track) {
	t.Helper()
	assert.True(t, timeline.IsSorted(tr), "notes out of order")
	assert.True(t, timeline.IsMonophonic(tr), "notes overlap")
	for _, n := range tr.Notes {
		assert.LessOrEqual(t, n.Pitch, uint8(model.MaxPitch))
		assert.False(t, n.IsDegenerate(), "degenerate note %+v", n)
	}
}

func TestOmitSingleNote(t *testing.T) {
	tr := &model.Track{Notes: []model.Note{{Pitch: 60, Velocity: 80, Start: 0, End: 1}}}
	records, err := newInjector(config.Default(), 1).InjectMistakes(tr, fixed(model.Omit, 1))
	require.NoError(t, err)
	assert.Empty(t, tr.Notes)
	require.Len(t, records, 1)
	assert.Equal(t, model.Omit, records[0].Kind)
	assert.Equal(t, uint8(60), records[0].Pitch)
}

func TestExtraNoteKeepsTrackWellFormed(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		tr := &model.Track{Notes: []model.Note{
			{Pitch: 60, Velocity: 80, Start: 0, End: 1},
			{Pitch: 62, Velocity: 80, Start: 1, End: 2},
		}}
		_, err := newInjector(config.Default(), seed).InjectMistakes(tr, fixed(model.ExtraNote, 1))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(tr.Notes), 2)
		assert.LessOrEqual(t, len(tr.Notes), 3)
		assertWellFormed(t, tr)
		for _, n := range tr.Notes {
			assert.Equal(t, uint8(80), n.Velocity)
		}
	}
}

func TestExtraNoteWithOverlapAllowed(t *testing.T) {
	tr := &model.Track{Notes: []model.Note{
		{Pitch: 60, Velocity: 80, Start: 0, End: 1},
		{Pitch: 62, Velocity: 80, Start: 1, End: 2},
	}}
	opts := fixed(model.ExtraNote, 1)
	opts.AllowOverlap = true
	records, err := newInjector(config.Default(), 3).InjectMistakes(tr, opts)
	require.NoError(t, err)
	assert.Len(t, tr.Notes, 3)
	require.Len(t, records, 1)
	assert.Equal(t, model.ExtraNote, records[0].Kind)
	assert.True(t, timeline.IsSorted(tr))
}

func TestPitchErrorStaysInRange(t *testing.T) {
	cfg := config.Default()
	cfg.StdevPitchDelta = 5
	for _, pitch := range []uint8{0, 127} {
		tr := &model.Track{Notes: []model.Note{{Pitch: pitch, Velocity: 100, Start: 0, End: 1}}}
		records, err := newInjector(cfg, 5).InjectMistakes(tr, fixed(model.PitchError, 100))
		require.NoError(t, err)
		require.Len(t, tr.Notes, 1)
		assert.Len(t, records, 100)
		assert.Equal(t, uint8(100), tr.Notes[0].Velocity)
		assert.Equal(t, 0.0, tr.Notes[0].Start)
		assert.Equal(t, 1.0, tr.Notes[0].End)
		assertWellFormed(t, tr)
	}
}

func TestPitchErrorChangesPitch(t *testing.T) {
	tr := &model.Track{Notes: []model.Note{{Pitch: 64, Start: 0, End: 1}}}
	_, err := newInjector(config.Default(), 9).InjectMistakes(tr, fixed(model.PitchError, 1))
	require.NoError(t, err)
	assert.NotEqual(t, uint8(64), tr.Notes[0].Pitch)
}

func TestTimingShiftKeepsTrackWellFormed(t *testing.T) {
	cfg := config.Default()
	cfg.ExpressiveTimingRangeMs = 200
	cfg.ExpressiveTimingStdMs = 100
	for seed := uint64(0); seed < 30; seed++ {
		tr := &model.Track{}
		for i := 0; i < 8; i++ {
			start := float64(i) * 0.5
			tr.Notes = append(tr.Notes, model.Note{Pitch: 60, Velocity: 64, Start: start, End: start + 0.5})
		}
		records, err := newInjector(cfg, seed).InjectMistakes(tr, fixed(model.TimingShift, 4))
		require.NoError(t, err)
		assertWellFormed(t, tr)
		for _, n := range tr.Notes {
			assert.GreaterOrEqual(t, n.Start, 0.0)
		}
		for _, r := range records {
			assert.Equal(t, model.TimingShift, r.Kind)
			assert.Contains(t, r.Detail, "thirty-second bound")
		}
	}
}

func TestEmptyTrackIsNoOp(t *testing.T) {
	tr := &model.Track{}
	records, err := newInjector(config.Default(), 1).InjectMistakes(tr, Options{})
	assert.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, tr.Notes)
}

func TestZeroRateAppliesNothing(t *testing.T) {
	cfg := config.Default()
	cfg.LambdaOccur = 0
	tr := &model.Track{Notes: []model.Note{{Pitch: 60, Start: 0, End: 100}}}
	records, err := newInjector(cfg, 1).InjectMistakes(tr, Options{Tempo: 60})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, []model.Note{{Pitch: 60, Start: 0, End: 100}}, tr.Notes)
}

func TestInvalidParametersLeaveTrackUntouched(t *testing.T) {
	cases := map[string]func(*config.Config){
		"pitch std":         func(c *config.Config) { c.StdevPitchDelta = 0 },
		"duration std":      func(c *config.Config) { c.StdevDuration = 0 },
		"duration mean":     func(c *config.Config) { c.MeanDuration = -1 },
		"shift probability": func(c *config.Config) { c.ShiftProbability = 2 },
		"timing std":        func(c *config.Config) { c.ExpressiveTimingStdMs = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			tr := &model.Track{Notes: []model.Note{{Pitch: 60, Start: 0, End: 1}}}
			_, err := newInjector(cfg, 1).InjectMistakes(tr, fixed(model.Omit, 1))
			assert.True(t, errors.Is(err, dist.ErrInvalidDistributionParameters))
			assert.Len(t, tr.Notes, 1)
		})
	}
}

func TestDegenerateNoteRemoved(t *testing.T) {
	for _, recordIt := range []bool{false, true} {
		cfg := config.Default()
		cfg.RecordDegenerateNotes = recordIt
		tr := &model.Track{Notes: []model.Note{{Pitch: 60, Start: 1, End: 1}}}
		records, err := newInjector(cfg, 1).InjectMistakes(tr, fixed(model.PitchError, 1))
		require.NoError(t, err)
		assert.Empty(t, tr.Notes)
		if recordIt {
			require.Len(t, records, 1)
			assert.Equal(t, model.Omit, records[0].Kind)
			assert.Equal(t, "degenerate note removed", records[0].Detail)
		} else {
			assert.Empty(t, records)
		}
	}
}

func TestRandomMistakesKeepTrackWellFormed(t *testing.T) {
	cfg := config.Default()
	cfg.LambdaOccur = 2
	cfg.StdevPitchDelta = 3
	for seed := uint64(0); seed < 40; seed++ {
		s := dist.New(seed + 1000)
		tr := &model.Track{}
		at := 0.0
		for i := 0; i < 40; i++ {
			d := s.Uniform(0.05, 0.6)
			tr.Notes = append(tr.Notes, model.Note{Pitch: uint8(s.IntRange(40, 90)), Velocity: 90, Start: at, End: at + d})
			at += d + s.Uniform(0, 0.1)
		}
		records, err := newInjector(cfg, seed).InjectMistakes(tr, Options{Tempo: 100})
		require.NoError(t, err)
		assert.NotEmpty(t, records)
		assertWellFormed(t, tr)
	}
}

func TestSameSeedSameResult(t *testing.T) {
	run := func() ([]model.Note, []model.MistakeRecord) {
		cfg := config.Default()
		cfg.LambdaOccur = 1
		tr := &model.Track{}
		for i := 0; i < 20; i++ {
			tr.Notes = append(tr.Notes, model.Note{Pitch: 60 + uint8(i), Start: float64(i), End: float64(i) + 1})
		}
		records, err := newInjector(cfg, 77).InjectMistakes(tr, Options{Tempo: 90})
		require.NoError(t, err)
		return tr.Notes, records
	}
	notesA, recordsA := run()
	notesB, recordsB := run()
	assert.Equal(t, notesA, notesB)
	assert.Equal(t, recordsA, recordsB)
}

func TestTimingShiftCollapsingPreviousNoteIsRecorded(t *testing.T) {
	cfg := config.Default()
	cfg.ExpressiveTimingMeanMs = -25
	cfg.ExpressiveTimingStdMs = 1
	cfg.RecordDegenerateNotes = true
	for seed := uint64(0); seed < 20; seed++ {
		tr := &model.Track{Notes: []model.Note{
			{Pitch: 60, Velocity: 80, Start: 0, End: 0.01},
			{Pitch: 62, Velocity: 80, Start: 0.01, End: 0.5},
		}}
		records, err := newInjector(cfg, seed).InjectMistakes(tr, fixed(model.TimingShift, 1))
		require.NoError(t, err)
		assertWellFormed(t, tr)

		var omitted int
		for _, r := range records {
			if r.Kind == model.Omit {
				omitted++
				assert.Equal(t, "degenerate note removed", r.Detail)
			}
		}
		assert.Equal(t, 2, len(tr.Notes)+omitted, "seed %d: notes %+v records %+v", seed, tr.Notes, records)
	}
}
