package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "threadview.log")

	logger, closer, err := New("info", file)
	require.NoError(t, err)

	logger.Info().Str("k", "v").Msg("hello")
	logger.Debug().Msg("filtered")
	closer()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
	assert.NotContains(t, string(data), "filtered")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New("loud", "")
	assert.Error(t, err)
}

func TestNew_EmptyFileDiscards(t *testing.T) {
	logger, closer, err := New("debug", "")
	require.NoError(t, err)
	defer closer()

	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}
