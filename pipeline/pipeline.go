package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jsphweid/perturbdex/bend"
	"github.com/jsphweid/perturbdex/config"
	"github.com/jsphweid/perturbdex/dist"
	"github.com/jsphweid/perturbdex/ensemble"
	"github.com/jsphweid/perturbdex/mistake"
	"github.com/jsphweid/perturbdex/model"
	"github.com/jsphweid/perturbdex/synth"
	"github.com/jsphweid/perturbdex/timing"
	"github.com/pkg/errors"
)

type CorruptOptions struct {
	AllowOverlap bool
	FixedKind    *model.MistakeKind
	PitchBends   bool
}

// Perturber runs the stages over one score at a time. It owns its random
// stream, so a Perturber must not be shared between goroutines.
type Perturber struct {
	cfg     config.Config
	sampler *dist.Sampler
	seed    uint64
	log     *slog.Logger
	synth   synth.Service
}

type Option func(*Perturber)

func WithLogger(log *slog.Logger) Option {
	return func(p *Perturber) { p.log = log }
}

// WithSynth attaches the service used by Render.
func WithSynth(s synth.Service) Option {
	return func(p *Perturber) { p.synth = s }
}

func New(cfg config.Config, seed uint64, sampler *dist.Sampler, opts ...Option) *Perturber {
	if sampler == nil {
		sampler = dist.New(seed)
	}
	p := &Perturber{cfg: cfg, sampler: sampler, seed: seed, log: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Perturber) newReport() model.Report {
	return model.Report{RunID: uuid.New().String(), Seed: p.seed}
}

// Augment assigns instruments and tempo for kind and applies expressive
// timing.
func (p *Perturber) Augment(ctx context.Context, score *model.Score, kind model.EnsembleKind) (model.Report, error) {
	report := p.newReport()
	if err := ctx.Err(); err != nil {
		return report, err
	}
	if _, err := ensemble.AssignEnsembleAndTempo(score, kind, p.cfg, p.sampler); err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	if _, err := timing.ApplyExpressiveTiming(score, p.cfg, p.sampler); err != nil {
		return report, err
	}
	p.log.Info("augmented score", "ensemble", kind, "tempo", score.Tempo, "tracks", len(score.Tracks))
	report.Ensemble = kind
	report.Tempo = score.Tempo
	for _, t := range score.Tracks {
		report.Tracks = append(report.Tracks, model.TrackReport{Name: t.Name, Instrument: t.Instrument})
	}
	return report, nil
}

// Corrupt injects mistakes into every track and optionally synthesizes
// pitch bends for it. Cancellation is checked between tracks.
func (p *Perturber) Corrupt(ctx context.Context, score *model.Score, opts CorruptOptions) (model.Report, error) {
	report := p.newReport()
	report.Tempo = score.Tempo
	if opts.PitchBends {
		if err := bend.Validate(p.cfg); err != nil {
			return report, err
		}
	}

	injector := mistake.New(p.cfg, p.sampler, p.log)
	for _, t := range score.Tracks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		records, err := injector.InjectMistakes(t, mistake.Options{
			AllowOverlap: opts.AllowOverlap,
			FixedKind:    opts.FixedKind,
			Tempo:        score.Tempo,
		})
		if err != nil {
			return report, errors.Wrapf(err, "inject mistakes into %v", t.Name)
		}
		tr := model.TrackReport{Name: t.Name, Instrument: t.Instrument, Mistakes: records}
		if opts.PitchBends {
			points, err := bend.SynthesizePitchBends(t, p.cfg, p.sampler)
			if err != nil {
				return report, errors.Wrapf(err, "synthesize pitch bends for %v", t.Name)
			}
			tr.NumBends = len(points)
		}
		report.Tracks = append(report.Tracks, tr)
	}
	return report, nil
}

// Run applies the whole chain: ensemble and tempo, expressive timing, then
// mistakes and optional pitch bends.
func (p *Perturber) Run(ctx context.Context, score *model.Score, kind model.EnsembleKind, opts CorruptOptions) (model.Report, error) {
	augmented, err := p.Augment(ctx, score, kind)
	if err != nil {
		return augmented, err
	}
	report, err := p.Corrupt(ctx, score, opts)
	report.RunID = augmented.RunID
	report.Ensemble = kind
	return report, err
}

func (p *Perturber) Render(ctx context.Context, score *model.Score) ([]synth.Stem, error) {
	if p.synth == nil {
		return nil, errors.New("no synthesis service configured")
	}
	return p.synth.Render(ctx, score)
}
