package libemit

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf).Level(zerolog.InfoLevel)).WithField("type", "test")

	logger.Debugf("hidden %d", 1)
	logger.Infof("shown %d", 2)
	logger.Warnln("line", 3)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))

	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "shown 2", first["message"])
	assert.Equal(t, "test", first["type"])
	assert.Equal(t, "warn", second["level"])
	assert.Equal(t, "line 3", second["message"])
}
