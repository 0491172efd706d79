package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidParticipantID(t *testing.T) {
	assert.True(t, IsValidParticipantID("ABC123"))
	assert.True(t, IsValidParticipantID("5f8e-worker"))
	assert.False(t, IsValidParticipantID(""))
	assert.False(t, IsValidParticipantID("bad\nid"))
	assert.False(t, IsValidParticipantID(strings.Repeat("x", MaxParticipantIDLength+1)))
}

func TestParseRating(t *testing.T) {
	v, err := ParseRating(" 7", 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	for _, raw := range []string{"", "0", "8", "4.5", "abc"} {
		_, err := ParseRating(raw, 1, 7)
		assert.Error(t, err, raw)
	}
}

func TestParseReactionTime(t *testing.T) {
	assert.Equal(t, int64(1234), ParseReactionTime("1234.7"))
	assert.Equal(t, int64(-1), ParseReactionTime(""))
	assert.Equal(t, int64(-1), ParseReactionTime("-5"))
	assert.Equal(t, int64(-1), ParseReactionTime("soon"))
	assert.Equal(t, int64(-1), ParseReactionTime("1e30"))
	assert.Equal(t, int64(-1), ParseReactionTime("NaN"))
	assert.Equal(t, int64(-1), ParseReactionTime("+Inf"))
	assert.Equal(t, int64(-1), ParseReactionTime("9223372036854775807"))
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken(32)
	require.NoError(t, err)
	b, err := GenerateSecureToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 44)
	assert.NotEqual(t, NewRunID(), NewRunID())
}

func TestParseControls(t *testing.T) {
	got, err := ParseControls("0, 1,3", 4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 3}, got)

	got, err = ParseControls("", 4)
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, raw := range []string{"4", "-1", "a", "0,,1"} {
		_, err := ParseControls(raw, 4)
		assert.Error(t, err, raw)
	}
}
