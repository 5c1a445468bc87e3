package typeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrackIDValidates(t *testing.T) {
	id := NewTrackID()
	require.NoError(t, Validate(id, PrefixTrack))
	assert.Error(t, Validate(id, PrefixKeyframe))
	assert.Error(t, Validate("not an id", PrefixTrack))
}

func TestIDsAreUnique(t *testing.T) {
	assert.NotEqual(t, NewKeyframeID(), NewKeyframeID())
}
