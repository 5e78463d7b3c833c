package synth

import (
	"os"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"
)

// stemStreamer plays a Stem back as a beep.Streamer.
type stemStreamer struct {
	stem Stem
	pos  int
}

func (s *stemStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.pos >= len(s.stem.Left) {
		return 0, false
	}
	for n < len(samples) && s.pos < len(s.stem.Left) {
		samples[n][0] = float64(s.stem.Left[s.pos])
		samples[n][1] = float64(s.stem.Right[s.pos])
		n++
		s.pos++
	}
	return n, true
}

func (s *stemStreamer) Err() error {
	return nil
}

// WriteStem encodes stem as 16 bit stereo WAV at path.
func WriteStem(path string, stem Stem) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create stem file")
	}
	defer f.Close()

	format := beep.Format{
		SampleRate:  beep.SampleRate(stem.SampleRate),
		NumChannels: 2,
		Precision:   2,
	}
	if err := wav.Encode(f, &stemStreamer{stem: stem}, format); err != nil {
		return errors.Wrapf(err, "encode %v", path)
	}
	return nil
}
