package basestation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/backkem/basestation/pkg/coap"
	"github.com/backkem/basestation/pkg/discovery"
	"github.com/backkem/basestation/pkg/hal"
	"github.com/backkem/basestation/pkg/thread"
	"github.com/pion/logging"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultNetworkName   = "OpenClicker"
	DefaultJoinerPSKd    = "J01NME"
	DefaultJoinerTimeout = thread.DefaultJoinerTimeout
	DefaultLogLevel      = "info"
)

// Config is the user-facing configuration of a base station. It is read from
// YAML.
type Config struct {
	// NetworkName is written into the new dataset (1-16 bytes).
	NetworkName string `yaml:"network_name"`

	// JoinerPSKd is the credential joiners must present.
	JoinerPSKd string `yaml:"joiner_pskd"`

	// JoinerTimeout is how long a joiner window stays open.
	JoinerTimeout time.Duration `yaml:"joiner_timeout"`

	// JoinerButton opens a joiner window when pressed.
	JoinerButton hal.ButtonID `yaml:"joiner_button"`

	// CoAPPort is the port question/answer is served on.
	CoAPPort uint16 `yaml:"coap_port"`

	// Advertise publishes a _meshcop._udp border agent record once the node
	// leads the partition.
	Advertise bool `yaml:"advertise"`

	// AdvertisePort is the border agent port in the record.
	AdvertisePort int `yaml:"advertise_port"`

	// VendorName and ModelName are advertised as vn and mn.
	VendorName string `yaml:"vendor_name"`
	ModelName  string `yaml:"model_name"`

	// LogLevel is one of disabled, error, warn, info, debug, trace.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		NetworkName:   DefaultNetworkName,
		JoinerPSKd:    DefaultJoinerPSKd,
		JoinerTimeout: DefaultJoinerTimeout,
		JoinerButton:  hal.Button0,
		CoAPPort:      coap.DefaultPort,
		AdvertisePort: discovery.DefaultPort,
		VendorName:    "OpenClicker",
		ModelName:     "BaseStation",
		LogLevel:      DefaultLogLevel,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.NetworkName == "" || len(c.NetworkName) > thread.MaxNetworkNameLen {
		return fmt.Errorf("%w: network name must be 1-%d bytes", ErrInvalidConfig, thread.MaxNetworkNameLen)
	}
	if err := thread.ValidatePSKd(c.JoinerPSKd); err != nil {
		return fmt.Errorf("%w: joiner pskd: %v", ErrInvalidConfig, err)
	}
	if c.JoinerTimeout <= 0 {
		return fmt.Errorf("%w: joiner timeout must be positive", ErrInvalidConfig)
	}
	if c.JoinerButton != hal.Button0 && c.JoinerButton != hal.Button1 {
		return fmt.Errorf("%w: unknown joiner button %d", ErrInvalidConfig, c.JoinerButton)
	}
	if c.CoAPPort == 0 {
		return fmt.Errorf("%w: coap port must be 1-65535", ErrInvalidConfig)
	}
	if c.AdvertisePort <= 0 || c.AdvertisePort > 65535 {
		return fmt.Errorf("%w: advertise port must be 1-65535", ErrInvalidConfig)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// LoadConfig reads a YAML configuration. Keys missing from the file keep their
// defaults, and a missing file yields DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("basestation: read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("basestation: parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Encode returns c as YAML.
func (c Config) Encode() ([]byte, error) {
	return yaml.Marshal(&c)
}

// SaveConfig writes c to path as YAML.
func SaveConfig(path string, c Config) error {
	data, err := c.Encode()
	if err != nil {
		return fmt.Errorf("basestation: encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("basestation: write config %s: %w", path, err)
	}
	return nil
}

// ParseLogLevel maps a level name to a pion log level.
func ParseLogLevel(s string) (logging.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "off":
		return logging.LogLevelDisabled, nil
	case "error":
		return logging.LogLevelError, nil
	case "warn", "warning":
		return logging.LogLevelWarn, nil
	case "info", "":
		return logging.LogLevelInfo, nil
	case "debug":
		return logging.LogLevelDebug, nil
	case "trace":
		return logging.LogLevelTrace, nil
	default:
		return logging.LogLevelDisabled, fmt.Errorf("unknown log level %q", s)
	}
}
