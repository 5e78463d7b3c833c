package model

const (
	MinPitch = 0
	MaxPitch = 127

	MinBend = -8192
	MaxBend = 8191
)

type Note struct {
	Pitch    uint8   `json:"pitch" yaml:"pitch"`
	Velocity uint8   `json:"velocity" yaml:"velocity"`
	Start    float64 `json:"start" yaml:"start"`
	End      float64 `json:"end" yaml:"end"`
}

func (n Note) Duration() float64 {
	return n.End - n.Start
}

// IsDegenerate reports whether the note has zero or negative length.
func (n Note) IsDegenerate() bool {
	return n.End <= n.Start
}

type PitchBendPoint struct {
	Time float64 `json:"time" yaml:"time"`
	Bend int     `json:"bend" yaml:"bend"`
}

type Track struct {
	Name       string           `json:"name"`
	Part       Part             `json:"part,omitempty"`
	Instrument string           `json:"instrument,omitempty"`
	Program    uint8            `json:"program"`
	Notes      []Note           `json:"notes"`
	PitchBends []PitchBendPoint `json:"pitch_bends,omitempty"`
}

// EndTime is the end of the last note by start order, which is what the
// mistake rate is scaled by.
func (t *Track) EndTime() float64 {
	if len(t.Notes) == 0 {
		return 0
	}
	return t.Notes[len(t.Notes)-1].End
}

type Score struct {
	// Tempo in beats per minute.
	Tempo float64 `json:"tempo"`
	// Resolution in ticks per quarter note.
	Resolution uint16   `json:"resolution"`
	Tracks     []*Track `json:"tracks"`
}

func (s *Score) NumNotes() int {
	var total int
	for _, t := range s.Tracks {
		total += len(t.Notes)
	}
	return total
}
