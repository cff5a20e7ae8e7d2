package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"sigs.k8s.io/yaml"

	omerrors "github.com/filippocastelli/go-omada/pkg/errors"
	"github.com/filippocastelli/go-omada/pkg/validation"
)

const (
	DefaultPath    = "config.yml"
	DefaultEnvFile = ".env"

	DefaultBaseURL = "https://omadacontroller.local:8043"
	DefaultSite    = "Default"
)

// Config holds the controller connection settings
type Config struct {
	BaseURL  string `json:"baseurl" validate:"required,http_url"`
	Site     string `json:"site" validate:"required,site_key"`
	Verify   bool   `json:"verify"`
	Username string `json:"username"`
	Password string `json:"-"`

	// Path is the file the settings came from, "" when only defaults and environment were used.
	Path string `json:"-"`
}

// fileConfig is the on-disk shape. A config file must set every key.
type fileConfig struct {
	BaseURL  string `json:"baseurl" validate:"required,http_url"`
	Site     string `json:"site" validate:"required,site_key"`
	Verify   *bool  `json:"verify" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SetDefaults sets the default values for configuration
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Site == "" {
		c.Site = DefaultSite
	}
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{Verify: true}
	c.SetDefaults()
	return c
}

// Validate checks the settings needed to reach the controller. Credentials are not required here;
// a missing pair is asked for interactively.
func (c *Config) Validate() error {
	v, err := validation.Default()
	if err != nil {
		return err
	}
	if err := v.Validate(c); err != nil {
		var verr *validation.ValidationError
		if errors.As(err, &verr) {
			return omerrors.NewConfigError(c.Path, verr.Messages, err)
		}
		return omerrors.NewConfigError(c.Path, nil, err)
	}
	return nil
}

// HasCredentials reports whether both username and password are known.
func (c *Config) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// Load reads the YAML file at path, then applies the .env file and the environment on top.
// A missing file means defaults; a file that exists must be complete.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		fc, err := readFile(path)
		switch {
		case err == nil:
			cfg = &Config{
				BaseURL:  fc.BaseURL,
				Site:     fc.Site,
				Verify:   *fc.Verify,
				Username: fc.Username,
				Password: fc.Password,
				Path:     path,
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	if err := LoadDotEnv(DefaultEnvFile); err != nil {
		return nil, err
	}
	if err := InitFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, omerrors.NewConfigError(path, nil, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, omerrors.NewConfigError(path, nil, fmt.Errorf("failed to parse YAML: %w", err))
	}

	v, err := validation.Default()
	if err != nil {
		return nil, err
	}
	if err := v.Validate(&fc); err != nil {
		var verr *validation.ValidationError
		if errors.As(err, &verr) {
			return nil, omerrors.NewConfigError(path, verr.Messages, err)
		}
		return nil, omerrors.NewConfigError(path, nil, err)
	}
	return &fc, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment when the file exists.
// Variables already set in the environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return omerrors.NewConfigError(path, nil, err)
	}
	return nil
}

// InitFromEnv overrides cfg with the OMADA_* environment variables that are set.
func InitFromEnv(cfg *Config) error {
	if envBaseURL := os.Getenv("OMADA_BASEURL"); envBaseURL != "" {
		cfg.BaseURL = envBaseURL
	}
	if envSite := os.Getenv("OMADA_SITE"); envSite != "" {
		cfg.Site = envSite
	}
	if envVerify := os.Getenv("OMADA_VERIFY"); envVerify != "" {
		verify, err := strconv.ParseBool(envVerify)
		if err != nil {
			return omerrors.NewConfigError("", map[string]string{"OMADA_VERIFY": "must be a boolean"}, err)
		}
		cfg.Verify = verify
	}
	if envUsername := os.Getenv("OMADA_USERNAME"); envUsername != "" {
		cfg.Username = envUsername
	}
	if envPassword := os.Getenv("OMADA_PASSWORD"); envPassword != "" {
		cfg.Password = envPassword
	}
	return nil
}
