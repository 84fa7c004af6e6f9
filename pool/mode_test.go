package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode_Flags(t *testing.T) {
	tests := []struct {
		mode    Mode
		chunked bool
		linear  bool
	}{
		{DoublingIndividual, false, false},
		{DoublingChunk, true, false},
		{LinearIndividual, false, true},
		{LinearChunk, true, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.chunked, tt.mode.Chunked(), "%s chunked", tt.mode)
		assert.Equal(t, tt.linear, tt.mode.Linear(), "%s linear", tt.mode)
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes() {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	got, err := ParseMode(" LINEAR_CHUNK ")
	require.NoError(t, err)
	assert.Equal(t, LinearChunk, got)

	_, err = ParseMode("quadratic")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMode_Text(t *testing.T) {
	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("doubling-chunk")))
	assert.Equal(t, DoublingChunk, m)

	text, err := LinearIndividual.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "linear-individual", string(text))

	_, err = Mode(200).MarshalText()
	require.Error(t, err)
	assert.Equal(t, "Mode(200)", Mode(200).String())
}
