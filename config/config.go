package config

import (
	"os"
	"time"

	"github.com/jsphweid/perturbdex/dist"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type TempoSource string

const (
	// TempoFromScore uses the tempo assigned to the score.
	TempoFromScore TempoSource = "score"
	// TempoEstimated estimates the tempo from note onsets.
	TempoEstimated TempoSource = "estimated"
)

// Config is read once per invocation and passed by value; stages never
// modify it.
type Config struct {
	MinTempo int `yaml:"min_tempo"`
	MaxTempo int `yaml:"max_tempo"`

	ExpressiveTimingRangeMs float64 `yaml:"expressive_timing_range_ms"`
	ExpressiveTimingMeanMs  float64 `yaml:"expressive_timing_mean_ms"`
	ExpressiveTimingStdMs   float64 `yaml:"expressive_timing_std_ms"`

	// LambdaOccur is the mistake rate per second of track.
	LambdaOccur      float64 `yaml:"lambda_occur"`
	StdevPitchDelta  float64 `yaml:"stdev_pitch_delta"`
	MeanDuration     float64 `yaml:"mean_duration"`
	StdevDuration    float64 `yaml:"stdev_duration"`
	ShiftProbability float64 `yaml:"shift_probability"`
	AllowOverlap     bool    `yaml:"allow_overlap"`

	PitchBendLambdaOccur float64 `yaml:"pitch_bend_lambda_occur"`
	PitchBendMean        float64 `yaml:"pitch_bend_mean"`
	PitchBendStd         float64 `yaml:"pitch_bend_std"`
	// PitchBendStep is the interpolation step in seconds.
	PitchBendStep float64 `yaml:"pitch_bend_step"`

	TimingTempoSource     TempoSource `yaml:"timing_tempo_source"`
	RecordDegenerateNotes bool        `yaml:"record_degenerate_notes"`

	// Seed 0 means unset; callers draw a fresh one.
	Seed          uint64        `yaml:"seed"`
	SampleRate    int           `yaml:"sample_rate"`
	SoundFontPath string        `yaml:"soundfont_path"`
	Workers       int           `yaml:"workers"`
	FileTimeout   time.Duration `yaml:"file_timeout"`
}

func Default() Config {
	return Config{
		MinTempo:                60,
		MaxTempo:                120,
		ExpressiveTimingRangeMs: 30,
		ExpressiveTimingMeanMs:  0,
		ExpressiveTimingStdMs:   10,

		LambdaOccur:      0.03,
		StdevPitchDelta:  1,
		MeanDuration:     1,
		StdevDuration:    0.02,
		ShiftProbability: 0.5,
		AllowOverlap:     false,

		PitchBendLambdaOccur: 2,
		PitchBendMean:        0,
		PitchBendStd:         1000,
		PitchBendStep:        0.01,

		TimingTempoSource: TempoFromScore,

		SampleRate:  16000,
		Workers:     4,
		FileTimeout: time.Minute,
	}
}

// Load overlays the YAML file at path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %v", path)
	}
	return cfg, cfg.Validate()
}

// Validate checks the parameters shared by every stage. Stage specific
// distribution parameters are checked by the stage before it mutates anything.
func (c Config) Validate() error {
	if c.MinTempo <= 0 || c.MinTempo > c.MaxTempo {
		return errors.Wrapf(dist.ErrInvalidDistributionParameters, "tempo bounds [%v, %v]", c.MinTempo, c.MaxTempo)
	}
	if c.ShiftProbability < 0 || c.ShiftProbability > 1 {
		return errors.Wrapf(dist.ErrInvalidDistributionParameters, "shift probability %v", c.ShiftProbability)
	}
	switch c.TimingTempoSource {
	case TempoFromScore, TempoEstimated, "":
	default:
		return errors.Errorf("unknown timing_tempo_source %q", c.TimingTempoSource)
	}
	return nil
}

func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
