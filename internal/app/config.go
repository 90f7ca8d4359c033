package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"gridhold/server/logging"
)

// EnvPrefix is prepended to every configuration variable.
const EnvPrefix = "GRIDHOLD_"

// Config is the process configuration read from the environment.
type Config struct {
	Addr              string        `env:"ADDR" envDefault:":8080"`
	TickInterval      time.Duration `env:"TICK_INTERVAL" envDefault:"600ms"`
	HeartbeatTimeout  time.Duration `env:"HEARTBEAT_TIMEOUT" envDefault:"30s"`
	QueueDepth        int           `env:"QUEUE_DEPTH" envDefault:"256"`
	WriteWait         time.Duration `env:"WRITE_WAIT" envDefault:"10s"`
	CommandQueueLimit int           `env:"COMMAND_QUEUE_LIMIT" envDefault:"16"`
	WelcomeMessage    string        `env:"WELCOME_MESSAGE" envDefault:"Welcome to Gridhold."`
	Members           bool          `env:"MEMBERS"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// DefinitionsPath is the SQLite file holding object and item
	// definitions. Empty runs without definitions.
	DefinitionsPath string `env:"DEFINITIONS_DB"`
	// ScriptsDir is searched recursively for *.lua files.
	ScriptsDir string `env:"SCRIPTS_DIR"`

	LogSinks         []string         `env:"LOG_SINKS" envDefault:"console" envSeparator:","`
	LogJSONPath      string           `env:"LOG_JSON_PATH" envDefault:"gridhold-events.jsonl"`
	LogMinSeverity   logging.Severity `env:"LOG_MIN_SEVERITY" envDefault:"info"`
	LogBufferSize    int              `env:"LOG_BUFFER_SIZE" envDefault:"512"`
	MetricsEnabled   bool             `env:"METRICS" envDefault:"true"`
	EnablePprofTrace bool             `env:"ENABLE_PPROF_TRACE"`
}

// LoadConfig parses the configuration. A nil environ reads the process
// environment.
func LoadConfig(environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.TickInterval <= 0:
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	case c.QueueDepth <= 0:
		return fmt.Errorf("queue depth must be positive, got %d", c.QueueDepth)
	case c.CommandQueueLimit <= 0:
		return fmt.Errorf("command queue limit must be positive, got %d", c.CommandQueueLimit)
	}
	for _, sink := range c.LogSinks {
		if sink != logging.SinkConsole && sink != logging.SinkJSON {
			return fmt.Errorf("unknown log sink %q", sink)
		}
	}
	return nil
}

// LoggingConfig returns the router configuration.
func (c Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = append([]string(nil), c.LogSinks...)
	cfg.MinimumSeverity = c.LogMinSeverity
	cfg.BufferSize = c.LogBufferSize
	cfg.JSON.FilePath = c.LogJSONPath
	cfg.Fields = map[string]any{"service": "gridhold"}
	return cfg
}
