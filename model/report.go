package model

// MistakeRecord describes one applied mistake. Index refers to the note's
// position at the time the mistake was applied.
type MistakeRecord struct {
	Kind   MistakeKind `json:"kind" yaml:"kind"`
	Index  int         `json:"index" yaml:"index"`
	Pitch  uint8       `json:"pitch" yaml:"pitch"`
	Start  float64     `json:"start" yaml:"start"`
	End    float64     `json:"end" yaml:"end"`
	Detail string      `json:"detail,omitempty" yaml:"detail,omitempty"`
}

type TrackReport struct {
	Name       string          `json:"name" yaml:"name"`
	Instrument string          `json:"instrument" yaml:"instrument"`
	Mistakes   []MistakeRecord `json:"mistakes" yaml:"mistakes"`
	NumBends   int             `json:"num_bends" yaml:"num_bends"`
}

type Report struct {
	RunID    string        `json:"run_id" yaml:"run_id"`
	Seed     uint64        `json:"seed" yaml:"seed"`
	Ensemble EnsembleKind  `json:"ensemble,omitempty" yaml:"ensemble,omitempty"`
	Tempo    float64       `json:"tempo" yaml:"tempo"`
	Tracks   []TrackReport `json:"tracks" yaml:"tracks"`
}
