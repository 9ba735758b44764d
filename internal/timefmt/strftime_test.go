package timefmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToLayoutApacheStyle(t *testing.T) {
	layout := ToLayout(`%d/%b/%Y`)
	assert.Equal(t, "02/Jan/2006", layout)

	tm, err := time.Parse(layout, "15/Jul/2015")
	require.NoError(t, err)
	assert.Equal(t, 2015, tm.Year())
	assert.Equal(t, time.July, tm.Month())
	assert.Equal(t, 15, tm.Day())
}

func TestToLayoutTime(t *testing.T) {
	layout := ToLayout(`%H:%M:%S`)
	tm, err := time.Parse(layout, "12:34:56")
	require.NoError(t, err)
	assert.Equal(t, 12, tm.Hour())
	assert.Equal(t, 34, tm.Minute())
	assert.Equal(t, 56, tm.Second())
}

func TestSpaceCount(t *testing.T) {
	assert.Equal(t, 0, SpaceCount(`%d/%b/%Y`))
	assert.Equal(t, 1, SpaceCount(`%b %d`))
}

func TestUnknownDirectivePassesThroughLiterally(t *testing.T) {
	assert.Equal(t, "%Q", ToLayout(`%Q`))
}
