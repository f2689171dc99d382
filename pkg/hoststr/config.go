package hoststr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

const (
	// BackendSandbox selects the in-process reference runtime.
	BackendSandbox = "sandbox"

	// BackendCPython selects libpython. It needs a cpython-tagged build.
	BackendCPython = "cpython"
)

var validate = validator.New()

// Config selects and tunes the runtime backend behind a Bridge.
type Config struct {
	// Backend is "sandbox" (the default) or "cpython".
	Backend string `yaml:"backend" json:"backend,omitempty" validate:"omitempty,oneof=sandbox cpython" jsonschema:"enum=sandbox,enum=cpython,default=sandbox"`

	// Locale names the reference runtime's locale, for example "C.UTF-8" or
	// "de_DE.ISO-8859-15". Empty reads LC_ALL, LC_CTYPE and LANG. The CPython
	// backend always uses the process locale.
	Locale string `yaml:"locale" json:"locale,omitempty" jsonschema:"example=C.UTF-8"`

	// HeapPages is the reference runtime's initial heap size in 64 KiB pages.
	HeapPages uint32 `yaml:"heap_pages" json:"heap_pages,omitempty" validate:"lte=65535" jsonschema:"maximum=65535"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level" json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`

	// AllowUnlocked stops the reference runtime from checking that callers
	// hold its execution lock.
	AllowUnlocked bool `yaml:"allow_unlocked" json:"allow_unlocked,omitempty"`
}

// LoadConfig reads a YAML or JSON configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML (or JSON, which YAML accepts) and validates the
// result. Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the struct tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// BackendName returns the backend with the default applied.
func (c Config) BackendName() string {
	if c.Backend == "" {
		return BackendSandbox
	}
	return c.Backend
}

// Level maps LogLevel to a slog level. Empty means info.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// ConfigSchema returns the JSON Schema of Config.
func ConfigSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&Config{})

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return out, nil
}
