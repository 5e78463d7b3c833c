package timeline

import (
	"testing"

	"github.com/jsphweid/perturbdex/dist"
	"github.com/jsphweid/perturbdex/model"
	"github.com/stretchr/testify/assert"
)

func track(notes ...model.Note) *model.Track {
	return &model.Track{Name: "test", Notes: notes}
}

func note(pitch uint8, start, end float64) model.Note {
	return model.Note{Pitch: pitch, Velocity: 80, Start: start, End: end}
}

func TestEnforceMonophonyClipsOverlaps(t *testing.T) {
	tr := track(note(60, 0, 1.5), note(62, 1, 2), note(64, 1.8, 3))
	EnforceMonophony(tr)

	assert := assert.New(t)
	assert.Equal(1.0, tr.Notes[0].End)
	assert.Equal(1.8, tr.Notes[1].End)
	assert.Equal(3.0, tr.Notes[2].End)
	assert.True(IsMonophonic(tr))
}

func TestEnforceMonophonyIsIdempotent(t *testing.T) {
	tr := track(note(60, 0, 2), note(62, 0.5, 1), note(64, 0.7, 3), note(65, 4, 5))
	EnforceMonophony(tr)
	once := append([]model.Note(nil), tr.Notes...)
	EnforceMonophony(tr)

	assert.Equal(t, once, tr.Notes)
}

func TestEnforceMonophonyKeepsNotes(t *testing.T) {
	tr := track(note(60, 0, 2), note(62, 0, 1), note(64, 0.5, 3))
	EnforceMonophony(tr)

	assert := assert.New(t)
	assert.Len(tr.Notes, 3)
	assert.Equal(uint8(60), tr.Notes[0].Pitch)
	assert.Equal(uint8(62), tr.Notes[1].Pitch)
	assert.Equal(uint8(64), tr.Notes[2].Pitch)
}

func TestResolveOverlap(t *testing.T) {
	cases := []struct {
		name      string
		p         float64
		start     float64
		duration  float64
		expected  float64
		nextStart float64
	}{
		{name: "no conflict", p: 0, start: 0.2, duration: 0.5, expected: 0.5, nextStart: 1},
		{name: "ends at next start", p: 0, start: 0.5, duration: 0.5, expected: 0.5, nextStart: 1},
		{name: "truncates", p: 0, start: 0.5, duration: 1, expected: 0.5, nextStart: 1},
		{name: "truncates to zero", p: 0, start: 1, duration: 1, expected: 0, nextStart: 1},
		{name: "shifts", p: 1, start: 0.5, duration: 1, expected: 1, nextStart: 1.5},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tr := track(note(60, 0, 1), note(62, 1, 2), note(64, 2, 3))
			got := ResolveOverlap(tr, 0, c.start, c.duration, c.p, dist.New(1))

			assert := assert.New(t)
			assert.InDelta(c.expected, got, 1e-9)
			assert.InDelta(c.nextStart, tr.Notes[1].Start, 1e-9)
		})
	}
}

func TestResolveOverlapShiftPreservesDurations(t *testing.T) {
	tr := track(note(60, 0, 1), note(62, 1, 2), note(64, 2, 3.5))
	ResolveOverlap(tr, 0, 0.5, 1.25, 1, dist.New(7))

	assert := assert.New(t)
	assert.InDelta(1.75, tr.Notes[1].Start, 1e-9)
	assert.InDelta(1.0, tr.Notes[1].Duration(), 1e-9)
	assert.InDelta(2.75, tr.Notes[2].Start, 1e-9)
	assert.InDelta(1.5, tr.Notes[2].Duration(), 1e-9)
}

func TestResolveOverlapLastNote(t *testing.T) {
	tr := track(note(60, 0, 1))
	assert.Equal(t, 5.0, ResolveOverlap(tr, 0, 0.5, 5, 0, dist.New(1)))
}

func TestDropDegenerate(t *testing.T) {
	tr := track(note(60, 0, 1), note(61, 1, 1), note(62, 2, 1.5), note(63, 2, 3))
	removed := DropDegenerate(tr)

	assert := assert.New(t)
	assert.Equal(2, removed)
	assert.Equal([]model.Note{note(60, 0, 1), note(63, 2, 3)}, tr.Notes)
}

func TestSortNotes(t *testing.T) {
	tr := track(note(64, 2, 3), note(60, 0, 1), note(62, 1, 2))
	assert.False(t, IsSorted(tr))
	SortNotes(tr)
	assert.True(t, IsSorted(tr))
	assert.Equal(t, uint8(60), tr.Notes[0].Pitch)
}
