package synth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/faiface/beep/wav"
	"github.com/jsphweid/perturbdex/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	kind string
	a, b int32
}

type fakeSynthesizer struct {
	calls []call
}

func (f *fakeSynthesizer) ProcessMidiMessage(channel int32, command int32, data1, data2 int32) {
	f.calls = append(f.calls, call{kind: "midi", a: command, b: data1 | data2<<7})
}

func (f *fakeSynthesizer) NoteOn(channel, key, vel int32) {
	f.calls = append(f.calls, call{kind: "on", a: key, b: vel})
}

func (f *fakeSynthesizer) NoteOff(channel, key int32) {
	f.calls = append(f.calls, call{kind: "off", a: key})
}

func (f *fakeSynthesizer) Render(left, right []float32) {
	for i := range left {
		left[i], right[i] = 0.25, -0.25
	}
}

func fakeFont(sampleRate int) (*SoundFont, *fakeSynthesizer) {
	fake := &fakeSynthesizer{}
	return &SoundFont{
		sampleRate:     sampleRate,
		newSynthesizer: func() (synthesizer, error) { return fake, nil },
	}, fake
}

func testTrack() *model.Track {
	return &model.Track{
		Name:    "Soprano",
		Program: 73,
		Notes: []model.Note{
			{Pitch: 72, Velocity: 90, Start: 0, End: 1},
			{Pitch: 74, Velocity: 70, Start: 1, End: 2},
		},
		PitchBends: []model.PitchBendPoint{{Time: 1, Bend: -8192}},
	}
}

func TestRenderTrack(t *testing.T) {
	sf, fake := fakeFont(1000)
	stems, err := sf.Render(context.Background(), &model.Score{Tracks: []*model.Track{testTrack()}})
	require.NoError(t, err)
	require.Len(t, stems, 1)

	stem := stems[0]
	assert.Equal(t, "Soprano", stem.Name)
	assert.Equal(t, 1000, stem.SampleRate)
	assert.Len(t, stem.Left, 3000)
	assert.Len(t, stem.Right, 3000)

	assert.Equal(t, []call{
		{kind: "midi", a: 0xC0, b: 73},
		{kind: "on", a: 72, b: 90},
		{kind: "off", a: 72},
		{kind: "midi", a: 0xE0, b: 0},
		{kind: "on", a: 74, b: 70},
		{kind: "off", a: 74},
	}, fake.calls)
}

func TestRenderStopsOnCancel(t *testing.T) {
	sf, _ := fakeFont(1000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sf.Render(ctx, &model.Score{Tracks: []*model.Track{testTrack()}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteStem(t *testing.T) {
	sf, _ := fakeFont(8000)
	stems, err := sf.Render(context.Background(), &model.Score{Tracks: []*model.Track{testTrack()}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "soprano.wav")
	require.NoError(t, WriteStem(path, stems[0]))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	streamer, format, err := wav.Decode(f)
	require.NoError(t, err)
	defer streamer.Close()

	assert.Equal(t, 2, format.NumChannels)
	assert.Equal(t, 8000, int(format.SampleRate))
	assert.Equal(t, len(stems[0].Left), streamer.Len())
}
