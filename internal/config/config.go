// Package config loads NetBot settings from defaults, a TOML file, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides, e.g. NETBOT_SERVER_BASE_URL.
const EnvPrefix = "NETBOT_"

// DefaultPaths are searched in order when no config file is given.
var DefaultPaths = []string{"./netbot.toml", "$HOME/.netbot.toml"}

// Config represents the application configuration
type Config struct {
	Server struct {
		BaseURL string `koanf:"base_url" validate:"required,url"`
	} `koanf:"server"`

	Log struct {
		Level string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
		File  string `koanf:"file"`
	} `koanf:"log"`

	Watch struct {
		Extensions []string `koanf:"extensions" validate:"min=1,dive,startswith=."`
	} `koanf:"watch"`
}

var defaults = map[string]interface{}{
	"server.base_url":  "http://localhost:8000",
	"log.level":        "info",
	"log.file":         "netbot.log",
	"watch.extensions": []string{".pdf", ".docx", ".txt", ".csv"},
}

// LoadConfig loads the configuration.
// An explicit configPath must exist; otherwise DefaultPaths are tried and may all be absent.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		for _, path := range DefaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %w", path, err)
			}
			break
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// envKey maps NETBOT_SERVER_BASE_URL to server.base_url.
// Only the first underscore separates section from key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

var validate = validator.New()

// Validate checks the configuration for missing or malformed values.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// InitConfig writes a sample configuration file.
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# NetBot Configuration

[server]
# Knowledge-base backend. Override with NETBOT_SERVER_BASE_URL.
base_url = "http://localhost:8000"

[log]
# trace, debug, info, warn, error or disabled
level = "info"
# Interactive chat writes logs here instead of the terminal.
file = "netbot.log"

[watch]
# Files picked up by "netbot watch".
extensions = [".pdf", ".docx", ".txt", ".csv"]
`

	if err := os.WriteFile(configPath, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
