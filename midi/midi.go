package midi

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/jsphweid/perturbdex/constants"
	"github.com/jsphweid/perturbdex/model"
	"github.com/jsphweid/perturbdex/timeline"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const defaultTempo = 120

func ReadMidiFile(filepath string) (*model.Score, error) {
	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrap(err, "Error reading midi file")
	}
	return ReadScore(bytes.NewReader(dat))
}

type pressed struct {
	start    float64
	velocity uint8
}

// ReadScore parses a standard MIDI file into a Score. Every MTrk chunk that
// holds notes becomes one Track; note times are converted to seconds using
// the file's tempo map.
func ReadScore(r io.Reader) (score *model.Score, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if rec := recover(); rec != nil {
			score, e = nil, errors.Errorf("Error parsing midi file... %v", rec)
		}
	}()

	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, errors.Wrap(err, "Error parsing midi file")
	}

	res := &model.Score{Resolution: constants.DefaultResolution}
	if ticks, ok := s.TimeFormat.(smf.MetricTicks); ok {
		res.Resolution = ticks.Resolution()
	}

	for i, events := range s.Tracks {
		t := &model.Track{Name: fmt.Sprintf("track-%d", i)}
		on := make(map[uint8][]pressed)
		var absTicks int64
		for _, event := range events {
			absTicks += int64(event.Delta)
			absTime := float64(s.TimeAt(absTicks)) / 1e6

			var channel, key, velocity, program uint8
			var rel int16
			var abs uint16
			var bpm float64
			var name string
			switch {
			case event.Message.GetMetaTempo(&bpm):
				if res.Tempo == 0 {
					res.Tempo = bpm
				}
			case event.Message.GetMetaTrackName(&name):
				t.Name = name
			case event.Message.GetProgramChange(&channel, &program):
				t.Program = program
			case event.Message.GetPitchBend(&channel, &rel, &abs):
				t.PitchBends = appendBend(t.PitchBends, model.PitchBendPoint{Time: absTime, Bend: int(rel)})
			case event.Message.GetNoteStart(&channel, &key, &velocity):
				on[key] = append(on[key], pressed{start: absTime, velocity: velocity})
			case event.Message.GetNoteEnd(&channel, &key):
				stack := on[key]
				if len(stack) == 0 {
					continue
				}
				p := stack[0]
				on[key] = stack[1:]
				t.Notes = append(t.Notes, model.Note{
					Pitch:    key,
					Velocity: p.velocity,
					Start:    p.start,
					End:      absTime,
				})
			}
		}
		if len(t.Notes) == 0 {
			continue
		}
		timeline.SortNotes(t)
		timeline.DropDegenerate(t)
		res.Tracks = append(res.Tracks, t)
	}

	if res.Tempo == 0 {
		res.Tempo = defaultTempo
	}
	return res, nil
}

// appendBend keeps bend times strictly increasing; a later bend on the same
// tick replaces the earlier one.
func appendBend(bends []model.PitchBendPoint, b model.PitchBendPoint) []model.PitchBendPoint {
	if n := len(bends); n > 0 && bends[n-1].Time >= b.Time {
		bends[n-1] = b
		return bends
	}
	return append(bends, b)
}

type timedMessage struct {
	tick uint32
	// order breaks ties: note-offs before bends before note-ons
	order int
	msg   []byte
}

func toTicks(seconds, tempo float64, resolution uint16) uint32 {
	if seconds <= 0 {
		return 0
	}
	return uint32(math.Round(seconds * tempo / 60 * float64(resolution)))
}

// bendValue maps a signed 14 bit bend to what midi.Pitchbend expects.
func bendValue(bend int) int16 {
	if bend < model.MinBend {
		bend = model.MinBend
	}
	if bend > model.MaxBend {
		bend = model.MaxBend
	}
	return int16(bend)
}

// WriteScore writes score as a format 1 SMF with a conductor track holding
// the tempo and one track per score track on its own channel.
func WriteScore(w io.Writer, score *model.Score) error {
	resolution := score.Resolution
	if resolution == 0 {
		resolution = constants.DefaultResolution
	}
	tempo := score.Tempo
	if tempo <= 0 {
		return errors.Errorf("cannot write score with tempo %v", tempo)
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(resolution)

	var conductor smf.Track
	conductor.Add(0, smf.MetaTempo(tempo))
	conductor.Close(0)
	if err := s.Add(conductor); err != nil {
		return errors.Wrap(err, "add conductor track")
	}

	for i, t := range score.Tracks {
		channel := uint8(i % 16)
		if channel == 9 {
			// keep clear of the percussion channel
			channel = uint8((i + 1) % 16)
		}

		var msgs []timedMessage
		for _, n := range t.Notes {
			if n.IsDegenerate() {
				continue
			}
			msgs = append(msgs,
				timedMessage{tick: toTicks(n.Start, tempo, resolution), order: 2, msg: midi.NoteOn(channel, n.Pitch, n.Velocity)},
				timedMessage{tick: toTicks(n.End, tempo, resolution), order: 0, msg: midi.NoteOff(channel, n.Pitch)},
			)
		}
		for _, b := range t.PitchBends {
			msgs = append(msgs, timedMessage{tick: toTicks(b.Time, tempo, resolution), order: 1, msg: midi.Pitchbend(channel, bendValue(b.Bend))})
		}
		sort.SliceStable(msgs, func(a, b int) bool {
			if msgs[a].tick != msgs[b].tick {
				return msgs[a].tick < msgs[b].tick
			}
			return msgs[a].order < msgs[b].order
		})

		var track smf.Track
		track.Add(0, smf.MetaTrackSequenceName(t.Name))
		track.Add(0, midi.ProgramChange(channel, t.Program))
		var last uint32
		for _, m := range msgs {
			track.Add(m.tick-last, m.msg)
			last = m.tick
		}
		track.Close(0)
		if err := s.Add(track); err != nil {
			return errors.Wrapf(err, "add track %v", t.Name)
		}
	}

	_, err := s.WriteTo(w)
	return errors.Wrap(err, "write midi")
}

func WriteMidiFile(path string, score *model.Score) error {
	var buf bytes.Buffer
	if err := WriteScore(&buf, score); err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0666), "write %v", path)
}
