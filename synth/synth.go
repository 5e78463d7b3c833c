// Package synth is the boundary to audio rendering. The perturbation engine
// never renders audio itself; callers hand a Service to whatever drives it.
package synth

import (
	"bytes"
	"context"
	"os"
	"sort"

	"github.com/jsphweid/perturbdex/model"
	"github.com/pkg/errors"
	meltysynth "github.com/sinshu/go-meltysynth/meltysynth"
)

// block is the render size handed to the synthesizer per call.
const block = 1024

// tailSeconds of extra render time let releases decay.
const tailSeconds = 1.0

// Stem is one rendered track.
type Stem struct {
	Name       string
	Instrument string
	SampleRate int
	Left       []float32
	Right      []float32
}

type Service interface {
	Render(ctx context.Context, score *model.Score) ([]Stem, error)
}

// synthesizer is the subset of meltysynth.Synthesizer used while rendering.
type synthesizer interface {
	ProcessMidiMessage(channel int32, command int32, data1, data2 int32)
	NoteOn(channel, key, vel int32)
	NoteOff(channel, key int32)
	Render(left, right []float32)
}

// SoundFont renders each track with a General MIDI SoundFont.
type SoundFont struct {
	font       *meltysynth.SoundFont
	sampleRate int

	newSynthesizer func() (synthesizer, error)
}

func NewSoundFont(path string, sampleRate int) (*SoundFont, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read soundfont")
	}
	font, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "parse soundfont %v", path)
	}
	sf := &SoundFont{font: font, sampleRate: sampleRate}
	sf.newSynthesizer = func() (synthesizer, error) {
		settings := meltysynth.NewSynthesizerSettings(int32(sampleRate))
		settings.BlockSize = block
		return meltysynth.NewSynthesizer(font, settings)
	}
	return sf, nil
}

type event struct {
	sample int
	// order breaks ties: note-offs, then bends, then note-ons
	order int
	key   int32
	vel   int32
	bend  int
}

func (sf *SoundFont) toSamples(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	return int(seconds*float64(sf.sampleRate) + 0.5)
}

func (sf *SoundFont) events(t *model.Track) ([]event, int) {
	var events []event
	var maxEnd int
	for _, n := range t.Notes {
		start, end := sf.toSamples(n.Start), sf.toSamples(n.End)
		if end <= start {
			continue
		}
		events = append(events,
			event{sample: start, order: 2, key: int32(n.Pitch), vel: int32(n.Velocity)},
			event{sample: end, order: 0, key: int32(n.Pitch)},
		)
		if end > maxEnd {
			maxEnd = end
		}
	}
	for _, b := range t.PitchBends {
		events = append(events, event{sample: sf.toSamples(b.Time), order: 1, bend: b.Bend})
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].sample != events[j].sample {
			return events[i].sample < events[j].sample
		}
		return events[i].order < events[j].order
	})
	return events, maxEnd
}

func (sf *SoundFont) renderTrack(ctx context.Context, t *model.Track) (Stem, error) {
	const ch = 0
	syn, err := sf.newSynthesizer()
	if err != nil {
		return Stem{}, errors.Wrap(err, "create synthesizer")
	}
	syn.ProcessMidiMessage(ch, 0xC0, int32(t.Program), 0)

	events, maxEnd := sf.events(t)
	total := maxEnd + int(tailSeconds*float64(sf.sampleRate))
	stem := Stem{
		Name:       t.Name,
		Instrument: t.Instrument,
		SampleRate: sf.sampleRate,
		Left:       make([]float32, 0, total),
		Right:      make([]float32, 0, total),
	}

	next := 0
	left := make([]float32, block)
	right := make([]float32, block)
	for pos := 0; pos < total; pos += block {
		if err := ctx.Err(); err != nil {
			return Stem{}, err
		}
		n := block
		if pos+n > total {
			n = total - pos
		}
		for ; next < len(events) && events[next].sample < pos+n; next++ {
			ev := events[next]
			switch ev.order {
			case 0:
				syn.NoteOff(ch, ev.key)
			case 1:
				// 14 bit bend centered on 8192, sent as LSB/MSB
				v := int32(ev.bend + 8192)
				syn.ProcessMidiMessage(ch, 0xE0, v&0x7F, (v>>7)&0x7F)
			case 2:
				syn.NoteOn(ch, ev.key, ev.vel)
			}
		}
		syn.Render(left, right)
		stem.Left = append(stem.Left, left[:n]...)
		stem.Right = append(stem.Right, right[:n]...)
	}
	return stem, nil
}

// Render renders every track of score into its own stem. Mixing is left to
// the caller.
func (sf *SoundFont) Render(ctx context.Context, score *model.Score) ([]Stem, error) {
	var stems []Stem
	for _, t := range score.Tracks {
		stem, err := sf.renderTrack(ctx, t)
		if err != nil {
			return nil, errors.Wrapf(err, "render %v", t.Name)
		}
		stems = append(stems, stem)
	}
	return stems, nil
}
