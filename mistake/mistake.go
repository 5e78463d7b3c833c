package mistake

import (
	"log/slog"

	"github.com/jsphweid/perturbdex/config"
	"github.com/jsphweid/perturbdex/dist"
	"github.com/jsphweid/perturbdex/model"
	"github.com/jsphweid/perturbdex/timeline"
	"github.com/jsphweid/perturbdex/timing"
	"github.com/pkg/errors"
)

// These are never returned by the injector; they only show up in logs.
var (
	ErrEmptyTrack     = errors.New("empty track")
	ErrDegenerateNote = errors.New("degenerate note")
)

type Options struct {
	AllowOverlap bool
	// FixedKind pins every event to one mistake kind.
	FixedKind *model.MistakeKind
	// Occurrences pins the number of events instead of drawing it.
	Occurrences *int
	// Tempo of the score in BPM, used for the thirty-second-note bound.
	Tempo float64
}

type Injector struct {
	cfg config.Config
	s   *dist.Sampler
	log *slog.Logger
}

func New(cfg config.Config, s *dist.Sampler, log *slog.Logger) *Injector {
	if log == nil {
		log = slog.Default()
	}
	return &Injector{cfg: cfg, s: s, log: log}
}

// Validate checks every parameter a mistake handler may draw from, so no
// handler can fail after it started editing a track.
func (in *Injector) Validate() error {
	c := in.cfg
	switch {
	case !(c.StdevPitchDelta > 0):
		return errors.Wrapf(dist.ErrInvalidDistributionParameters, "pitch delta std %v", c.StdevPitchDelta)
	case !(c.StdevDuration > 0):
		return errors.Wrapf(dist.ErrInvalidDistributionParameters, "duration std %v", c.StdevDuration)
	case !(c.MeanDuration > 0):
		return errors.Wrapf(dist.ErrInvalidDistributionParameters, "gamma shape from duration mean %v", c.MeanDuration)
	case c.ShiftProbability < 0 || c.ShiftProbability > 1:
		return errors.Wrapf(dist.ErrInvalidDistributionParameters, "shift probability %v", c.ShiftProbability)
	}
	return timing.Validate(c)
}

// InjectMistakes applies a Poisson distributed number of mistakes to t and
// returns what was applied, in order. The track is left sorted and, unless
// overlap is allowed, monophonic.
func (in *Injector) InjectMistakes(t *model.Track, opts Options) ([]model.MistakeRecord, error) {
	if len(t.Notes) == 0 {
		in.log.Debug("skipping track", "track", t.Name, "err", ErrEmptyTrack)
		return nil, nil
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	timeline.SortNotes(t)
	occurrences := in.s.Poisson(in.cfg.LambdaOccur * t.EndTime())
	if opts.Occurrences != nil {
		occurrences = *opts.Occurrences
	}
	tempo := in.boundTempo(t, opts.Tempo)
	in.log.Info("injecting mistakes", "track", t.Name, "occurrences", occurrences, "notes", len(t.Notes))

	var records []model.MistakeRecord
	for e := 0; e < occurrences; e++ {
		if len(t.Notes) == 0 {
			in.log.Debug("stopping early", "track", t.Name, "err", ErrEmptyTrack)
			break
		}

		idx := in.s.IntN(len(t.Notes))
		note := t.Notes[idx]
		if note.IsDegenerate() {
			deleteNote(t, idx)
			in.log.Warn("removed note", "track", t.Name, "index", idx, "start", note.Start, "end", note.End, "err", ErrDegenerateNote)
			if in.cfg.RecordDegenerateNotes {
				records = append(records, record(model.Omit, idx, note, "degenerate note removed"))
			}
			continue
		}

		kind := dist.Choice(in.s, model.MistakeKinds)
		if opts.FixedKind != nil {
			kind = *opts.FixedKind
		}

		rec, applied, err := in.apply(t, idx, kind, opts.AllowOverlap, tempo)
		if err != nil {
			return records, errors.Wrapf(err, "%v on track %q", kind, t.Name)
		}
		if applied {
			records = append(records, rec)
			in.log.Info("applied mistake", "track", t.Name, "kind", rec.Kind, "index", rec.Index,
				"pitch", rec.Pitch, "start", rec.Start, "end", rec.End, "detail", rec.Detail)
		}
		timeline.SortNotes(t)
	}

	if !opts.AllowOverlap {
		timeline.EnforceMonophony(t)
	}
	records = append(records, in.dropDegenerate(t)...)
	return records, nil
}

func (in *Injector) apply(t *model.Track, idx int, kind model.MistakeKind, allowOverlap bool, tempo float64) (model.MistakeRecord, bool, error) {
	switch kind {
	case model.Omit:
		return in.omit(t, idx)
	case model.PitchError:
		return in.pitchError(t, idx)
	case model.ExtraNote:
		return in.extraNote(t, idx, allowOverlap)
	case model.TimingShift:
		return in.timingShift(t, idx, allowOverlap, tempo)
	}
	return model.MistakeRecord{}, false, errors.Errorf("unknown mistake kind %v", kind)
}

func (in *Injector) boundTempo(t *model.Track, scoreTempo float64) float64 {
	fallback := scoreTempo
	if fallback <= 0 {
		fallback = float64(in.cfg.MaxTempo)
	}
	if in.cfg.TimingTempoSource == config.TempoEstimated || scoreTempo <= 0 {
		return timing.EstimateTempo(t, fallback)
	}
	return scoreTempo
}

// dropDegenerate removes notes that edits left with no length. Each one is
// recorded as an omit when degenerate notes are records.
func (in *Injector) dropDegenerate(t *model.Track) []model.MistakeRecord {
	var records []model.MistakeRecord
	for i, n := range t.Notes {
		if !n.IsDegenerate() {
			continue
		}
		in.log.Debug("dropping note", "track", t.Name, "index", i, "pitch", n.Pitch, "start", n.Start, "err", ErrDegenerateNote)
		if in.cfg.RecordDegenerateNotes {
			records = append(records, record(model.Omit, i, n, "degenerate note removed"))
		}
	}
	timeline.DropDegenerate(t)
	return records
}

func deleteNote(t *model.Track, idx int) {
	t.Notes = append(t.Notes[:idx], t.Notes[idx+1:]...)
}

func record(kind model.MistakeKind, idx int, n model.Note, detail string) model.MistakeRecord {
	return model.MistakeRecord{
		Kind:   kind,
		Index:  idx,
		Pitch:  n.Pitch,
		Start:  n.Start,
		End:    n.End,
		Detail: detail,
	}
}
