// Package dist holds the random source threaded through every perturbation
// stage. A Sampler is not safe for concurrent use; each worker owns one.
package dist

import (
	"encoding/binary"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

var ErrInvalidDistributionParameters = errors.New("invalid distribution parameters")

// maxPitchDeltaDraws bounds the rejection loop in PitchDelta. Exhausting it
// means the std-dev is too small to ever move a pitch.
const maxPitchDeltaDraws = 1000

type Sampler struct {
	rng *rand.Rand
}

func New(seed uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Stream separates passes that share a seed, so a file run through two
// passes under one seed gets a different stream in each.
type Stream uint64

const (
	StreamRun Stream = iota
	StreamAugment
	StreamMistakes
)

// NewSeed draws a fresh seed from the system entropy source.
func NewSeed() uint64 {
	u := uuid.New()
	return binary.LittleEndian.Uint64(u[:8])
}

// Derive returns an independent stream for the n-th unit of work of stream
// under seed.
func Derive(seed uint64, stream Stream, n int) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed^(uint64(stream)*0x9e3779b97f4a7c15), uint64(n)+1))}
}

func (s *Sampler) Float64() float64 {
	return s.rng.Float64()
}

// IntN returns a uniform int in [0, n).
func (s *Sampler) IntN(n int) int {
	return s.rng.IntN(n)
}

// IntRange returns a uniform int in [lo, hi].
func (s *Sampler) IntRange(lo, hi int) int {
	return lo + s.rng.IntN(hi-lo+1)
}

// Uniform returns a value in [lo, hi).
func (s *Sampler) Uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return distuv.Uniform{Min: lo, Max: hi, Src: s.rng}.Rand()
}

// Bernoulli returns true with probability p.
func (s *Sampler) Bernoulli(p float64) bool {
	return s.rng.Float64() < p
}

// Poisson draws an event count. A non-positive rate yields zero events.
func (s *Sampler) Poisson(lambda float64) int {
	if lambda <= 0 || math.IsNaN(lambda) {
		return 0
	}
	return int(distuv.Poisson{Lambda: lambda, Src: s.rng}.Rand())
}

func (s *Sampler) Normal(mean, std float64) (float64, error) {
	if !(std > 0) {
		return 0, errors.Wrapf(ErrInvalidDistributionParameters, "normal std %v", std)
	}
	return distuv.Normal{Mu: mean, Sigma: std, Src: s.rng}.Rand(), nil
}

// Gamma draws from a gamma distribution with the given shape and scale.
func (s *Sampler) Gamma(shape, scale float64) (float64, error) {
	if !(shape > 0) || !(scale > 0) {
		return 0, errors.Wrapf(ErrInvalidDistributionParameters, "gamma shape %v scale %v", shape, scale)
	}
	return distuv.Gamma{Alpha: shape, Beta: 1 / scale, Src: s.rng}.Rand(), nil
}

// GammaFromMoments draws a gamma variate parameterised the way the duration
// jitter is configured: shape mean/std², scale std².
func (s *Sampler) GammaFromMoments(mean, std float64) (float64, error) {
	if !(std > 0) {
		return 0, errors.Wrapf(ErrInvalidDistributionParameters, "gamma std %v", std)
	}
	return s.Gamma(mean/(std*std), std*std)
}

// TruncNormal draws from Normal(mean, std) restricted to [lo, hi] by inverting
// the CDF over the truncated mass.
func (s *Sampler) TruncNormal(mean, std, lo, hi float64) (float64, error) {
	if !(std > 0) {
		return 0, errors.Wrapf(ErrInvalidDistributionParameters, "truncated normal std %v", std)
	}
	if !(lo < hi) {
		return 0, errors.Wrapf(ErrInvalidDistributionParameters, "truncated normal bounds [%v, %v]", lo, hi)
	}
	n := distuv.Normal{Mu: mean, Sigma: std, Src: s.rng}
	pLo, pHi := n.CDF(lo), n.CDF(hi)
	if pHi-pLo <= 0 {
		// all mass sits beyond one bound
		if mean < lo {
			return lo, nil
		}
		return hi, nil
	}
	p := pLo + s.rng.Float64()*(pHi-pLo)
	if p <= 0 || p >= 1 {
		p = math.Min(math.Max(p, math.SmallestNonzeroFloat64), 1-1e-16)
	}
	return math.Min(math.Max(n.Quantile(p), lo), hi), nil
}

// PitchDelta draws a non-zero semitone offset: Normal(0, std) truncated
// toward zero, redrawn while it would round to no change.
func (s *Sampler) PitchDelta(std float64) (int, error) {
	if !(std > 0) {
		return 0, errors.Wrapf(ErrInvalidDistributionParameters, "pitch delta std %v", std)
	}
	n := distuv.Normal{Mu: 0, Sigma: std, Src: s.rng}
	for i := 0; i < maxPitchDeltaDraws; i++ {
		delta := int(n.Rand())
		if delta != 0 {
			return delta, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidDistributionParameters, "pitch delta std %v never leaves (-1, 1)", std)
}

// Choice returns a uniformly drawn element of items.
func Choice[T any](s *Sampler, items []T) T {
	return items[s.IntN(len(items))]
}
