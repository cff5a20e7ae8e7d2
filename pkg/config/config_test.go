package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	omerrors "github.com/filippocastelli/go-omada/pkg/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OMADA_BASEURL", "OMADA_SITE", "OMADA_VERIFY", "OMADA_USERNAME", "OMADA_PASSWORD"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_File(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expectError bool
		fields      []string
		check       func(*testing.T, *Config)
	}{
		{
			name: "complete file",
			content: `baseurl: https://omada.example:8043
site: Office
verify: false
username: admin
password: secret
`,
			check: func(t *testing.T, c *Config) {
				if c.BaseURL != "https://omada.example:8043" || c.Site != "Office" || c.Verify {
					t.Errorf("Unexpected config %+v", c)
				}
				if !c.HasCredentials() {
					t.Error("Expected credentials from file")
				}
			},
		},
		{
			name: "missing keys",
			content: `baseurl: https://omada.example:8043
verify: true
`,
			expectError: true,
			fields:      []string{"site", "username", "password"},
		},
		{
			name: "verify false is a value, not a missing key",
			content: `baseurl: https://omada.example:8043
site: Default
verify: false
username: admin
`,
			expectError: true,
			fields:      []string{"password"},
		},
		{
			name: "bad url",
			content: `baseurl: omada.example
site: Default
verify: true
username: admin
password: secret
`,
			expectError: true,
			fields:      []string{"baseurl"},
		},
		{
			name:        "malformed verify",
			content:     "baseurl: https://omada.example\nsite: Default\nverify: [1, 2]\nusername: a\npassword: b\n",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := writeConfig(t, tt.content)

			cfg, err := Load(path)
			if tt.expectError {
				if err == nil {
					t.Fatalf("Expected error, got config %+v", cfg)
				}
				var cerr *omerrors.ConfigError
				if !errors.As(err, &cerr) {
					t.Fatalf("Expected ConfigError, got %T: %v", err, err)
				}
				if cerr.Path != path {
					t.Errorf("Expected path %s in error, got %s", path, cerr.Path)
				}
				for _, f := range tt.fields {
					if _, ok := cerr.Fields[f]; !ok {
						t.Errorf("Expected field %s in %v", f, cerr.Fields)
					}
				}
				if len(tt.fields) > 0 && len(cerr.Fields) != len(tt.fields) {
					t.Errorf("Expected %d fields, got %v", len(tt.fields), cerr.Fields)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if cfg.Path != path {
				t.Errorf("Expected Path %s, got %s", path, cfg.Path)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL || cfg.Site != DefaultSite || !cfg.Verify {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
	if cfg.HasCredentials() || cfg.Path != "" {
		t.Errorf("Expected no credentials and no path, got %+v", cfg)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `baseurl: https://omada.example:8043
site: Office
verify: true
username: admin
password: secret
`)
	t.Setenv("OMADA_SITE", "Warehouse")
	t.Setenv("OMADA_VERIFY", "false")
	t.Setenv("OMADA_PASSWORD", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Site != "Warehouse" || cfg.Verify || cfg.Password != "from-env" {
		t.Errorf("Environment not applied: %+v", cfg)
	}
	if cfg.Username != "admin" || cfg.BaseURL != "https://omada.example:8043" {
		t.Errorf("Unset variables must keep file values: %+v", cfg)
	}
}

func TestInitFromEnv_InvalidVerify(t *testing.T) {
	clearEnv(t)
	t.Setenv("OMADA_VERIFY", "sometimes")

	err := InitFromEnv(Default())
	if omerrors.GetErrorType(err) != omerrors.ErrorTypeConfiguration {
		t.Fatalf("Expected CONFIGURATION error, got %v", err)
	}
	if !strings.Contains(err.Error(), "OMADA_VERIFY") {
		t.Errorf("Expected variable name in error, got %v", err)
	}
}

func TestInitFromEnv_Variables(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(*Config) bool
	}{
		{name: "base url", key: "OMADA_BASEURL", value: "https://env.local:8043", check: func(c *Config) bool { return c.BaseURL == "https://env.local:8043" }},
		{name: "site", key: "OMADA_SITE", value: "Branch", check: func(c *Config) bool { return c.Site == "Branch" }},
		{name: "verify", key: "OMADA_VERIFY", value: "false", check: func(c *Config) bool { return !c.Verify }},
		{name: "username", key: "OMADA_USERNAME", value: "ops", check: func(c *Config) bool { return c.Username == "ops" }},
		{name: "password", key: "OMADA_PASSWORD", value: "hunter2", check: func(c *Config) bool { return c.Password == "hunter2" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg := Default()
			if err := InitFromEnv(cfg); err != nil {
				t.Fatalf("InitFromEnv failed: %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("%s=%s not applied: %+v", tt.key, tt.value, cfg)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("OMADA_USERNAME")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("OMADA_USERNAME=dotenv-user\n"), 0o600); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("OMADA_USERNAME") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("OMADA_USERNAME"); got != "dotenv-user" {
		t.Errorf("Expected OMADA_USERNAME from .env, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("Missing .env should be ignored, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      *Config
		expectError bool
		errorMsg    string
	}{
		{name: "defaults", config: Default()},
		{
			name:        "empty base url",
			config:      &Config{Site: "Default"},
			expectError: true,
			errorMsg:    "baseurl",
		},
		{
			name:        "site with query",
			config:      &Config{BaseURL: DefaultBaseURL, Site: "a?b"},
			expectError: true,
			errorMsg:    "site",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing %q, got %v", tt.errorMsg, err)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
