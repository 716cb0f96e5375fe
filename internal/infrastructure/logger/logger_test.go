package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterJSON(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	log, err := NewWithWriter("debug", "json", &buf)
	require.NoError(t, err)

	log.Debug().Str("conversation_id", "c1").Msg("hello")

	assert.Contains(t, buf.String(), `"conversation_id":"c1"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
	assert.Equal(t, zerolog.DebugLevel, GetLogger().GetLevel())
}

func TestNewRejectsUnknownFormatAndLevel(t *testing.T) {
	_, err := NewWithWriter("info", "xml", &bytes.Buffer{})
	require.Error(t, err)

	_, err = NewWithWriter("loud", "json", &bytes.Buffer{})
	require.Error(t, err)
}

func TestNewFileCreatesDirectory(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	path := filepath.Join(t.TempDir(), "logs", "jan-chat.log")
	log, err := NewFile("info", "json", path)
	require.NoError(t, err)

	log.Info().Msg("written")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written")

	_, err = NewFile("info", "json", " ")
	require.Error(t, err)
}
