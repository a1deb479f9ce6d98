package libemit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func expectedConfig() Config {
	maxListeners := 3
	return Config{
		MaxListeners: &maxListeners,
		Convention:   "lenient",
		Events:       map[string]string{"foo": "number", "bar": "string", "baz": "void"},
		Relay: RelayConfig{
			URL:          "ws://localhost:8080/events",
			Codec:        "msgpack",
			PingInterval: "15s",
			Reconnect:    true,
		},
	}
}

func TestLoadConfigYAML(t *testing.T) {
	p := writeTempFile(t, t.TempDir(), "cfg.yaml", `
max_listeners: 3
convention: lenient
events:
  foo: number
  bar: string
  baz: void
relay:
  url: ws://localhost:8080/events
  codec: msgpack
  ping_interval: 15s
  reconnect: true
`)
	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, expectedConfig(), cfg)
}

func TestLoadConfigTOML(t *testing.T) {
	p := writeTempFile(t, t.TempDir(), "cfg.toml", `
max_listeners = 3
convention = "lenient"

[events]
foo = "number"
bar = "string"
baz = "void"

[relay]
url = "ws://localhost:8080/events"
codec = "msgpack"
ping_interval = "15s"
reconnect = true
`)
	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, expectedConfig(), cfg)
}

func TestLoadConfigJSON(t *testing.T) {
	p := writeTempFile(t, t.TempDir(), "cfg.json", `{
  "max_listeners": 3,
  "convention": "lenient",
  "events": {"foo": "number", "bar": "string", "baz": "void"},
  "relay": {"url": "ws://localhost:8080/events", "codec": "msgpack", "ping_interval": "15s", "reconnect": true}
}`)
	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, expectedConfig(), cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	d := t.TempDir()

	_, err := LoadConfig("")
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = LoadConfig(filepath.Join(d, "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeTempFile(t, d, "cfg.ini", "max_listeners=1"))
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = LoadConfig(writeTempFile(t, d, "bad.yaml", "max_listeners: [\n"))
	assert.Error(t, err)
}

func TestConfigOptions(t *testing.T) {
	opts, err := expectedConfig().Options()
	require.NoError(t, err)

	emitter := NewDynamicEmitter(append(opts, quiet())...)
	assert.Equal(t, 3, emitter.GetMaxListeners())
	assert.Equal(t, Lenient, emitter.Convention())
	assert.Equal(t, demoSchema(), emitter.Schema())
}

func TestConfigOptionsDefaults(t *testing.T) {
	opts, err := Config{}.Options()
	require.NoError(t, err)

	emitter := NewDynamicEmitter(append(opts, quiet())...)
	assert.Equal(t, DefaultMaxListeners, emitter.GetMaxListeners())
	assert.Equal(t, Strict, emitter.Convention())
	assert.Nil(t, emitter.Schema())
}

func TestConfigOptionsInvalid(t *testing.T) {
	negative := -1

	for name, cfg := range map[string]Config{
		"max listeners": {MaxListeners: &negative},
		"convention":    {Convention: "relaxed"},
		"shape":         {Events: map[string]string{"foo": "integer"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := cfg.Options()
			assert.Error(t, err)
		})
	}
}

func TestRelayConfigOptions(t *testing.T) {
	opts, err := expectedConfig().Relay.RelayOptions()
	require.NoError(t, err)

	var o relayOptions
	for _, opt := range opts {
		opt(&o)
	}
	assert.Equal(t, MsgpackCodec, o.codec)
	assert.Equal(t, 15*time.Second, o.pingInterval)
	assert.NotNil(t, o.backoff)

	_, err = RelayConfig{Codec: "xml"}.RelayOptions()
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = RelayConfig{PingInterval: "soon"}.RelayOptions()
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
