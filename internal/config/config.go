// Package config loads the daemon configuration from a YAML file with
// environment overrides. Configuration errors are fatal at startup: an
// output must never enter service with an invalid cycle or dead time.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/sweeney/timeprop-relay/internal/gpio"
	"github.com/sweeney/timeprop-relay/internal/mqtt"
	"github.com/sweeney/timeprop-relay/internal/timeprop"
)

// Config is the top-level daemon configuration.
type Config struct {
	Broker           string   `mapstructure:"broker"`
	TopicPrefix      string   `mapstructure:"topic_prefix"`
	HTTPAddr         string   `mapstructure:"http_addr"`
	HeartbeatSeconds int      `mapstructure:"heartbeat_seconds"`
	Outputs          []Output `mapstructure:"outputs"`
}

// Output configures one relay channel.
type Output struct {
	Name              string  `mapstructure:"name"`
	Pin               int     `mapstructure:"pin"`
	CycleTime         int     `mapstructure:"cycle_time"`
	DeadTime          int     `mapstructure:"dead_time"`
	Inverted          bool    `mapstructure:"inverted"`
	FallbackPower     float64 `mapstructure:"fallback_power"`
	MaxUpdateInterval int     `mapstructure:"max_update_interval"`
}

// defaultCycleTime applies to outputs that don't set cycle_time.
const defaultCycleTime = 60

// Load reads configuration from the given file, or from timeprop.yaml in the
// working directory or /etc/timeprop-relay when path is empty. A missing
// file is only an error when a path was given explicitly; otherwise the
// defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("timeprop")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/timeprop-relay")
	}

	v.SetDefault("broker", "tcp://192.168.1.200:1883")
	v.SetDefault("topic_prefix", mqtt.DefaultTopicPrefix)
	v.SetDefault("http_addr", ":80")
	v.SetDefault("heartbeat_seconds", 900)

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		cfg.Broker = broker
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills the classic two-channel heating board when no outputs
// are configured, and per-output cycle times left at zero.
func (c *Config) applyDefaults() {
	if len(c.Outputs) == 0 {
		c.Outputs = []Output{
			{Name: "ch", Pin: gpio.DefaultPinCH},
			{Name: "hw", Pin: gpio.DefaultPinHW},
		}
	}
	for i := range c.Outputs {
		if c.Outputs[i].CycleTime == 0 {
			c.Outputs[i].CycleTime = defaultCycleTime
		}
		if c.Outputs[i].Name == "" {
			c.Outputs[i].Name = fmt.Sprintf("output%d", i)
		}
	}
}

// Validate checks the whole configuration, including every output's control
// preconditions.
func (c *Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker must be set")
	}
	if c.TopicPrefix == "" {
		return fmt.Errorf("topic_prefix must be set")
	}
	if len(c.Outputs) == 0 {
		return fmt.Errorf("at least one output must be configured")
	}

	pins := make(map[int]int)
	for i, out := range c.Outputs {
		if out.Pin < 0 {
			return fmt.Errorf("output %d (%s): pin must not be negative", i, out.Name)
		}
		if prev, dup := pins[out.Pin]; dup {
			return fmt.Errorf("output %d (%s): pin %d already used by output %d", i, out.Name, out.Pin, prev)
		}
		pins[out.Pin] = i

		if err := out.controlConfig().Validate(); err != nil {
			return fmt.Errorf("output %d (%s): %w", i, out.Name, err)
		}
	}
	return nil
}

func (o Output) controlConfig() timeprop.Config {
	return timeprop.Config{
		CycleTime:         o.CycleTime,
		DeadTime:          o.DeadTime,
		Inverted:          o.Inverted,
		FallbackPower:     o.FallbackPower,
		MaxUpdateInterval: o.MaxUpdateInterval,
	}
}

// ControlConfigs returns the per-output controller configurations in index
// order.
func (c *Config) ControlConfigs() []timeprop.Config {
	cfgs := make([]timeprop.Config, len(c.Outputs))
	for i, out := range c.Outputs {
		cfgs[i] = out.controlConfig()
	}
	return cfgs
}

// Pins returns the GPIO pin numbers in index order.
func (c *Config) Pins() []int {
	pins := make([]int, len(c.Outputs))
	for i, out := range c.Outputs {
		pins[i] = out.Pin
	}
	return pins
}

// Names returns the output names in index order.
func (c *Config) Names() []string {
	names := make([]string, len(c.Outputs))
	for i, out := range c.Outputs {
		names[i] = out.Name
	}
	return names
}
