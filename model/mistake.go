package model

import "fmt"

type MistakeKind int

const (
	Omit MistakeKind = iota
	PitchError
	ExtraNote
	TimingShift
)

var MistakeKinds = []MistakeKind{Omit, PitchError, ExtraNote, TimingShift}

var mistakeKindNames = map[MistakeKind]string{
	Omit:        "omit",
	PitchError:  "pitch_error",
	ExtraNote:   "extra_note",
	TimingShift: "timing_shift",
}

func (k MistakeKind) String() string {
	if name, ok := mistakeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("MistakeKind(%d)", int(k))
}

func ParseMistakeKind(s string) (MistakeKind, error) {
	for k, name := range mistakeKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown mistake kind %q", s)
}

func (k MistakeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MistakeKind) UnmarshalText(text []byte) error {
	parsed, err := ParseMistakeKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
