// Package timeline holds the ordering primitives every stage relies on. Note
// indices are only meaningful until the next call that edits a track.
package timeline

import (
	"sort"

	"github.com/jsphweid/perturbdex/dist"
	"github.com/jsphweid/perturbdex/model"
)

func SortNotes(t *model.Track) {
	sort.SliceStable(t.Notes, func(i, j int) bool {
		return t.Notes[i].Start < t.Notes[j].Start
	})
}

func IsSorted(t *model.Track) bool {
	return sort.SliceIsSorted(t.Notes, func(i, j int) bool {
		return t.Notes[i].Start < t.Notes[j].Start
	})
}

// EnforceMonophony clips every note's end to the next note's start. It never
// reorders or deletes, and a second application changes nothing.
func EnforceMonophony(t *model.Track) *model.Track {
	for i := 0; i < len(t.Notes)-1; i++ {
		if t.Notes[i].End > t.Notes[i+1].Start {
			t.Notes[i].End = t.Notes[i+1].Start
		}
	}
	return t
}

func IsMonophonic(t *model.Track) bool {
	for i := 0; i < len(t.Notes)-1; i++ {
		if t.Notes[i].End > t.Notes[i+1].Start {
			return false
		}
	}
	return true
}

// ResolveOverlap reconciles a proposed interval [start, start+duration) for
// the note at idx against the note after it. With probability p the rest of
// the track is pushed later by the overlap and duration is kept; otherwise
// the duration is cut so the interval ends at the next start. A returned
// duration of 0 tells the caller to drop its edit.
func ResolveOverlap(t *model.Track, idx int, start, duration, p float64, s *dist.Sampler) float64 {
	if idx < 0 || idx >= len(t.Notes)-1 {
		return duration
	}
	next := t.Notes[idx+1]
	if start+duration <= next.Start {
		return duration
	}
	if s.Bernoulli(p) {
		ShiftFrom(t, idx+1, start+duration-next.Start)
		return duration
	}
	if next.Start-start < 0 {
		return 0
	}
	return next.Start - start
}

// ShiftFrom moves the note at idx and every later note by amount seconds.
func ShiftFrom(t *model.Track, idx int, amount float64) {
	for n := idx; n < len(t.Notes); n++ {
		t.Notes[n].Start += amount
		t.Notes[n].End += amount
	}
}

// DropDegenerate removes notes with non-positive duration and returns how
// many were removed.
func DropDegenerate(t *model.Track) int {
	kept := t.Notes[:0]
	for _, n := range t.Notes {
		if !n.IsDegenerate() {
			kept = append(kept, n)
		}
	}
	removed := len(t.Notes) - len(kept)
	t.Notes = kept
	return removed
}
