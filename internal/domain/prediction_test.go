package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScore(t *testing.T) {
	t.Parallel()

	score, err := ParseScore("2:1")
	require.NoError(t, err)
	assert.Equal(t, Score{Home: 2, Away: 1}, score)

	score, err = ParseScore(" 0 : 0 ")
	require.NoError(t, err)
	assert.Equal(t, Score{Home: 0, Away: 0}, score)

	assert.Equal(t, "3:2", Score{Home: 3, Away: 2}.String())
}

func TestParseScoreRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"", "2-1", "two:one", "2:", "-1:0", "2:1:0 extra:"} {
		_, err := ParseScore(value)
		assert.Error(t, err, "value %q", value)
	}
}
