package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMistakeKind(t *testing.T) {
	for _, k := range MistakeKinds {
		parsed, err := ParseMistakeKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseMistakeKind("wrong_note")
	assert.Error(t, err)
}

func TestMistakeKindJSON(t *testing.T) {
	data, err := json.Marshal(MistakeRecord{Kind: TimingShift, Pitch: 60})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"timing_shift"`)

	var body PerturbRequestBody
	require.NoError(t, json.Unmarshal([]byte(`{"fixed_mistake": "extra_note"}`), &body))
	require.NotNil(t, body.FixedMistake)
	assert.Equal(t, ExtraNote, *body.FixedMistake)

	assert.Error(t, json.Unmarshal([]byte(`{"fixed_mistake": "nope"}`), &body))
}

func TestTrackEndTime(t *testing.T) {
	assert.Equal(t, 0.0, (&Track{}).EndTime())
	tr := &Track{Notes: []Note{{Start: 0, End: 3}, {Start: 1, End: 2}}}
	assert.Equal(t, 2.0, tr.EndTime())
}
