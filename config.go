package libemit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of an emitter and, optionally, of the relay mirroring it.
// Zero values mean "unspecified" and keep the package defaults.
type Config struct {
	// MaxListeners is a pointer so that an explicit 0 (unlimited) differs from unset.
	MaxListeners *int              `json:"max_listeners" yaml:"max_listeners" toml:"max_listeners"`
	Convention   string            `json:"convention" yaml:"convention" toml:"convention"`
	Events       map[string]string `json:"events" yaml:"events" toml:"events"`
	Relay        RelayConfig       `json:"relay" yaml:"relay" toml:"relay"`
}

type RelayConfig struct {
	URL          string `json:"url" yaml:"url" toml:"url"`
	Codec        string `json:"codec" yaml:"codec" toml:"codec"`
	PingInterval string `json:"ping_interval" yaml:"ping_interval" toml:"ping_interval"`
	Reconnect    bool   `json:"reconnect" yaml:"reconnect" toml:"reconnect"`
}

// LoadConfig reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.Wrap(ErrInvalidConfig, "empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "cannot read config %s", path)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, errors.Wrapf(ErrInvalidConfig, "unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "cannot decode config %s", path)
	}
	return cfg, nil
}

// Schema returns the declared events, or nil when the config declares none.
func (c Config) Schema() (Schema, error) {
	if len(c.Events) == 0 {
		return nil, nil
	}
	return ParseSchema(c.Events)
}

// Options translates the config into emitter options, schema included.
func (c Config) Options() ([]Option, error) {
	var opts []Option

	if c.MaxListeners != nil {
		if *c.MaxListeners < 0 {
			return nil, errors.Wrapf(ErrInvalidConfig, "max_listeners must be non-negative, got %d", *c.MaxListeners)
		}
		opts = append(opts, WithMaxListeners(*c.MaxListeners))
	}

	convention, err := ParseConvention(c.Convention)
	if err != nil {
		return nil, err
	}
	opts = append(opts, WithConvention(convention))

	schema, err := c.Schema()
	if err != nil {
		return nil, err
	}
	if schema != nil {
		opts = append(opts, WithSchema(schema))
	}

	return opts, nil
}

// RelayOptions translates the relay section into relay options.
func (c RelayConfig) RelayOptions() ([]RelayOption, error) {
	var opts []RelayOption

	codec, err := CodecByName(c.Codec)
	if err != nil {
		return nil, err
	}
	opts = append(opts, WithCodec(codec))

	if c.PingInterval != "" {
		interval, err := time.ParseDuration(c.PingInterval)
		if err != nil || interval <= 0 {
			return nil, errors.Wrapf(ErrInvalidConfig, "invalid ping_interval %q", c.PingInterval)
		}
		opts = append(opts, WithPingInterval(interval))
	}

	if c.Reconnect {
		opts = append(opts, WithReconnect(ExponentialBackoffSeconds))
	}

	return opts, nil
}
