package mistake

import (
	"fmt"
	"math"

	"github.com/jsphweid/perturbdex/model"
	"github.com/jsphweid/perturbdex/timeline"
	"github.com/jsphweid/perturbdex/timing"
	"github.com/jsphweid/perturbdex/util"
)

func (in *Injector) omit(t *model.Track, idx int) (model.MistakeRecord, bool, error) {
	note := t.Notes[idx]
	deleteNote(t, idx)
	return record(model.Omit, idx, note, ""), true, nil
}

func (in *Injector) perturbPitch(pitch uint8) (uint8, error) {
	delta, err := in.s.PitchDelta(in.cfg.StdevPitchDelta)
	if err != nil {
		return pitch, err
	}
	return uint8(util.Clamp(int(pitch)+delta, model.MinPitch, model.MaxPitch)), nil
}

func (in *Injector) pitchError(t *model.Track, idx int) (model.MistakeRecord, bool, error) {
	old := t.Notes[idx].Pitch
	pitch, err := in.perturbPitch(old)
	if err != nil {
		return model.MistakeRecord{}, false, err
	}
	t.Notes[idx].Pitch = pitch
	return record(model.PitchError, idx, t.Notes[idx], fmt.Sprintf("pitch %d -> %d", old, pitch)), true, nil
}

// durationFactor draws the multiplicative gamma jitter applied to durations.
func (in *Injector) durationFactor() (float64, error) {
	return in.s.GammaFromMoments(in.cfg.MeanDuration, in.cfg.StdevDuration)
}

func (in *Injector) extraNote(t *model.Track, idx int, allowOverlap bool) (model.MistakeRecord, bool, error) {
	source := t.Notes[idx]
	factor, err := in.durationFactor()
	if err != nil {
		return model.MistakeRecord{}, false, err
	}
	// stretching and compressing are both possible; keep the shorter one
	d := source.Duration()
	duration := math.Max(0, math.Min(d/factor, d*factor))
	start := in.s.Uniform(source.Start, source.End)
	pitch, err := in.perturbPitch(source.Pitch)
	if err != nil {
		return model.MistakeRecord{}, false, err
	}

	if !allowOverlap {
		duration = timeline.ResolveOverlap(t, idx, start, duration, in.cfg.ShiftProbability, in.s)
	}
	extra := model.Note{
		Pitch:    pitch,
		Velocity: source.Velocity,
		Start:    start,
		End:      start + duration,
	}
	if !(duration > 0) {
		in.log.Debug("discarded extra note", "track", t.Name, "source", idx, "start", start, "pitch", pitch)
		return model.MistakeRecord{}, false, nil
	}
	t.Notes = append(t.Notes, extra)
	return record(model.ExtraNote, idx, extra, fmt.Sprintf("from pitch %d, duration factor %.4f", source.Pitch, factor)), true, nil
}

func (in *Injector) timingShift(t *model.Track, idx int, allowOverlap bool, tempo float64) (model.MistakeRecord, bool, error) {
	note := t.Notes[idx]
	factor, err := in.durationFactor()
	if err != nil {
		return model.MistakeRecord{}, false, err
	}
	offset, err := timing.Offset(in.cfg, in.s)
	if err != nil {
		return model.MistakeRecord{}, false, err
	}

	duration := math.Max(0, note.Duration()*factor)
	start := math.Max(0, note.Start+offset)
	bound := timing.ThirtySecondNote(tempo)
	detail := fmt.Sprintf("shift %.4fs within thirty-second bound %.4fs", offset, bound)
	if math.Abs(offset) > bound {
		detail = fmt.Sprintf("shift %.4fs beyond thirty-second bound %.4fs", offset, bound)
		in.log.Warn("timing error", "track", t.Name, "index", idx, "pitch", note.Pitch, "start", note.Start, "shift", offset)
	}

	if !allowOverlap {
		if idx > 0 {
			prev := &t.Notes[idx-1]
			if start < prev.End {
				prev.End = math.Max(prev.Start, start)
			}
		}
		duration = timeline.ResolveOverlap(t, idx, start, duration, in.cfg.ShiftProbability, in.s)
	}
	t.Notes[idx].Start = start
	t.Notes[idx].End = start + duration
	return record(model.TimingShift, idx, t.Notes[idx], detail), true, nil
}
