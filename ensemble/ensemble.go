package ensemble

import (
	"github.com/jsphweid/perturbdex/config"
	"github.com/jsphweid/perturbdex/dist"
	"github.com/jsphweid/perturbdex/model"
	"github.com/pkg/errors"
)

var (
	ErrUnsupportedEnsembleKind = errors.New("unsupported ensemble kind")
	ErrUnknownPart             = errors.New("track has no voice part")
)

var stringEnsemble = map[model.Part]string{
	model.Soprano: "violin",
	model.Alto:    "violin",
	model.Tenor:   "viola",
	model.Bass:    "cello",
}

var woodwindEnsemble = map[model.Part]string{
	model.Soprano: "flute",
	model.Alto:    "oboe",
	model.Tenor:   "clarinet",
	model.Bass:    "bassoon",
}

var brassEnsemble = map[model.Part]string{
	model.Soprano: "trumpet",
	model.Alto:    "horn",
	model.Tenor:   "trombone",
	model.Bass:    "tuba",
}

var randomEnsemble = map[model.Part][]string{
	model.Soprano: {"violin", "flute", "trumpet", "clarinet", "oboe"},
	model.Alto:    {"violin", "viola", "flute", "clarinet", "oboe", "saxophone", "trumpet", "horn"},
	model.Tenor:   {"viola", "cello", "clarinet", "saxophone", "trombone", "horn"},
	model.Bass:    {"cello", "double bass", "bassoon", "tuba"},
}

// General MIDI programs (zero based) for every instrument an ensemble can pick.
var programs = map[string]uint8{
	"violin":      40,
	"viola":       41,
	"cello":       42,
	"double bass": 43,
	"trumpet":     56,
	"trombone":    57,
	"tuba":        58,
	"horn":        60,
	"saxophone":   65,
	"oboe":        68,
	"bassoon":     70,
	"clarinet":    71,
	"flute":       73,
}

func IsSupported(kind model.EnsembleKind) bool {
	for _, k := range model.EnsembleKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Program looks up the General MIDI program for an instrument name.
func Program(instrument string) (uint8, bool) {
	p, ok := programs[instrument]
	return p, ok
}

// InstrumentFor picks the instrument playing part in kind. Random ensembles
// draw a fresh instrument on every call.
func InstrumentFor(kind model.EnsembleKind, part model.Part, s *dist.Sampler) (string, error) {
	var table map[model.Part]string
	switch kind {
	case model.StringEnsemble:
		table = stringEnsemble
	case model.BrassEnsemble:
		table = brassEnsemble
	case model.WoodwindEnsemble:
		table = woodwindEnsemble
	case model.RandomEnsemble:
		candidates, ok := randomEnsemble[part]
		if !ok {
			return "", errors.Wrapf(ErrUnknownPart, "%q", part)
		}
		return dist.Choice(s, candidates), nil
	default:
		return "", errors.Wrapf(ErrUnsupportedEnsembleKind, "%q", kind)
	}
	instrument, ok := table[part]
	if !ok {
		return "", errors.Wrapf(ErrUnknownPart, "%q", part)
	}
	return instrument, nil
}

func partFor(t *model.Track, i int) (model.Part, error) {
	if t.Part != "" {
		return t.Part, nil
	}
	if i < len(model.FourParts) {
		return model.FourParts[i], nil
	}
	return "", errors.Wrapf(ErrUnknownPart, "track %d (%v)", i, t.Name)
}

// AssignEnsembleAndTempo draws a tempo in [MinTempo, MaxTempo] and binds every
// track to an instrument of kind. When the score already has a tempo, note and
// bend times are rescaled so they keep their position in beats. Nothing is
// modified unless every track can be assigned.
func AssignEnsembleAndTempo(score *model.Score, kind model.EnsembleKind, cfg config.Config, s *dist.Sampler) (*model.Score, error) {
	if !IsSupported(kind) {
		return score, errors.Wrapf(ErrUnsupportedEnsembleKind, "%q", kind)
	}
	if cfg.MinTempo <= 0 || cfg.MinTempo > cfg.MaxTempo {
		return score, errors.Wrapf(dist.ErrInvalidDistributionParameters, "tempo bounds [%v, %v]", cfg.MinTempo, cfg.MaxTempo)
	}

	parts := make([]model.Part, len(score.Tracks))
	instruments := make([]string, len(score.Tracks))
	for i, t := range score.Tracks {
		part, err := partFor(t, i)
		if err != nil {
			return score, err
		}
		instrument, err := InstrumentFor(kind, part, s)
		if err != nil {
			return score, err
		}
		parts[i] = part
		instruments[i] = instrument
	}

	tempo := float64(s.IntRange(cfg.MinTempo, cfg.MaxTempo))
	if score.Tempo > 0 {
		rescale(score, score.Tempo/tempo)
	}
	score.Tempo = tempo

	for i, t := range score.Tracks {
		t.Part = parts[i]
		t.Instrument = instruments[i]
		t.Program, _ = Program(instruments[i])
	}
	return score, nil
}

func rescale(score *model.Score, factor float64) {
	for _, t := range score.Tracks {
		for i := range t.Notes {
			t.Notes[i].Start *= factor
			t.Notes[i].End *= factor
		}
		for i := range t.PitchBends {
			t.PitchBends[i].Time *= factor
		}
	}
}
