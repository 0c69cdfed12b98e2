package steamid

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	id, err := Parse("76561198012345678")
	require.NoError(t, err)
	assert.Equal(t, "76561198012345678", id.String())
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)
}

var deviceIDShape = regexp.MustCompile(`^android:[0-9a-f]{40}$`)

func TestNewDeviceID_ShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		id, err := NewDeviceID()
		require.NoError(t, err)
		assert.Regexp(t, deviceIDShape, id)
		assert.False(t, seen[id], "device id collision")
		seen[id] = true
	}
}
