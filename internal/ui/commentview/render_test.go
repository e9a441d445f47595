package commentview

import (
	"fmt"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_CacheIsBounded(t *testing.T) {
	r, err := NewRenderer("ascii", termenv.Ascii)
	require.NoError(t, err)

	for i := 0; i < maxCachedBodies+10; i++ {
		r.markdown(fmt.Sprintf("comment %d", i), 60)
	}
	assert.LessOrEqual(t, len(r.bodies), maxCachedBodies)

	for w := 20; w < 20+maxCachedRenderers+5; w++ {
		r.markdown("resized", w)
	}
	assert.LessOrEqual(t, len(r.mds), maxCachedRenderers)
	assert.LessOrEqual(t, len(r.bodies), maxCachedBodies)
}

func TestRenderer_CachedBodyIsReused(t *testing.T) {
	r, err := NewRenderer("ascii", termenv.Ascii)
	require.NoError(t, err)

	first := r.markdown("**hello**", 40)
	assert.Contains(t, first, "hello")
	assert.Equal(t, first, r.markdown("**hello**", 40))
	assert.Len(t, r.bodies, 1)
}
