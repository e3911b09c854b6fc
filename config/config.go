// Package config loads the optional tuning file the core reads on top of
// its two required positional CLI arguments (port, bind address).
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// GlobalConfig is the top-level shape of config.yaml.
type GlobalConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Engine  EngineConfig  `yaml:"engine"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds the listen address. The CLI's positional port/bind
// arguments, when given, override this.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// EngineConfig tunes the event loop and connection state machine.
// MaxMessageBytes is loaded and overlaid like the other fields but is not
// passed to the codec; the parser always applies codec.MaxMessageLen.
type EngineConfig struct {
	TickMS                    int `yaml:"tick_ms"`
	ReadBufferCapBytes        int `yaml:"read_buffer_cap_bytes"`
	WriteBufferHighWaterBytes int `yaml:"write_buffer_high_water_bytes"`
	WriteBufferLowWaterBytes  int `yaml:"write_buffer_low_water_bytes"`
	MaxMessageBytes           int `yaml:"max_message_bytes"`
}

// MetricsConfig controls the optional Prometheus HTTP endpoint. It is
// disabled by default; no extra port is opened unless Enabled is set.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// LogConfig controls the zap/lumberjack logging sink.
type LogConfig struct {
	Level    string `yaml:"level"`
	Filename string `yaml:"filename"`
}

// TickInterval returns EngineConfig.TickMS as a time.Duration.
func (e EngineConfig) TickInterval() time.Duration {
	return time.Duration(e.TickMS) * time.Millisecond
}

// Default returns the configuration used when no config.yaml is present,
// or to fill in zero-valued fields from a partially specified file.
func Default() *GlobalConfig {
	return &GlobalConfig{
		Server: ServerConfig{Address: "0.0.0.0:6380"},
		Engine: EngineConfig{
			TickMS:                    100,
			ReadBufferCapBytes:        1 << 20,  // 1 MiB
			WriteBufferHighWaterBytes: 16 << 20, // 16 MiB
			WriteBufferLowWaterBytes:  4 << 20,  // 4 MiB
			MaxMessageBytes:           4 << 20,  // 4 MiB
		},
		Metrics: MetricsConfig{Enabled: false, Address: ""},
		Log:     LogConfig{Level: "info", Filename: ""},
	}
}

// Load reads path (defaulting to ./config.yaml) if present, overlaying its
// non-zero fields onto Default(). A missing file is not an error: the
// core requires no configuration beyond its CLI arguments.
func Load(path string) (*GlobalConfig, error) {
	cfg := Default()

	if path == "" {
		path = "./config.yaml"
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	defer file.Close()

	var overlay GlobalConfig
	if err := yaml.NewDecoder(file).Decode(&overlay); err != nil {
		return nil, err
	}

	applyOverlay(cfg, &overlay)
	return cfg, nil
}

func applyOverlay(cfg, overlay *GlobalConfig) {
	if overlay.Server.Address != "" {
		cfg.Server.Address = overlay.Server.Address
	}
	if overlay.Engine.TickMS > 0 {
		cfg.Engine.TickMS = overlay.Engine.TickMS
	}
	if overlay.Engine.ReadBufferCapBytes > 0 {
		cfg.Engine.ReadBufferCapBytes = overlay.Engine.ReadBufferCapBytes
	}
	if overlay.Engine.WriteBufferHighWaterBytes > 0 {
		cfg.Engine.WriteBufferHighWaterBytes = overlay.Engine.WriteBufferHighWaterBytes
	}
	if overlay.Engine.WriteBufferLowWaterBytes > 0 {
		cfg.Engine.WriteBufferLowWaterBytes = overlay.Engine.WriteBufferLowWaterBytes
	}
	if overlay.Engine.MaxMessageBytes > 0 {
		cfg.Engine.MaxMessageBytes = overlay.Engine.MaxMessageBytes
	}
	cfg.Metrics.Enabled = overlay.Metrics.Enabled
	if overlay.Metrics.Address != "" {
		cfg.Metrics.Address = overlay.Metrics.Address
	}
	if overlay.Log.Level != "" {
		cfg.Log.Level = overlay.Log.Level
	}
	if overlay.Log.Filename != "" {
		cfg.Log.Filename = overlay.Log.Filename
	}
}
