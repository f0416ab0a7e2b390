package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultAddr            = "127.0.0.1"
	defaultPort            = ":8880"
	defaultMaxFileBytes    = 10 * 1024 * 1024
	defaultMaxRequestBytes = 64 * 1024 * 1024
	defaultSubmissionsPath = "data/submissions.json"
	defaultUploadsDir      = "data/uploads"
	defaultTokenTTLSeconds = 86400

	// EnvPrefix namespaces environment overrides, e.g. FORMSERVER_SERVER_PORT.
	EnvPrefix = "FORMSERVER"
)

// ServerConfig configures the HTTP listener used by formserver.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Port string `mapstructure:"port"`
}

// FormConfig limits what the request endpoint accepts.
type FormConfig struct {
	// Services lists the allowed service values. Empty means the choices
	// found in the served page are used.
	Services        []string `mapstructure:"services"`
	MaxFileBytes    int64    `mapstructure:"max_file_bytes"`
	MaxRequestBytes int64    `mapstructure:"max_request_bytes"`
}

// StorageConfig points at the submissions file and the upload directory.
type StorageConfig struct {
	SubmissionsPath string `mapstructure:"submissions_path"`
	UploadsDir      string `mapstructure:"uploads_dir"`
}

// AdminConfig holds the single admin account.
type AdminConfig struct {
	Email           string `mapstructure:"email"`
	Password        string `mapstructure:"password"`
	PasswordHash    string `mapstructure:"password_hash"`
	TokenTTLSeconds int    `mapstructure:"token_ttl_seconds"`
}

// Enabled reports whether enough credentials were configured to log in.
func (a AdminConfig) Enabled() bool {
	if strings.TrimSpace(a.Email) == "" {
		return false
	}
	return strings.TrimSpace(a.Password) != "" || strings.TrimSpace(a.PasswordHash) != ""
}

// Config represents the combined runtime settings parsed from config.json.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Form    FormConfig    `mapstructure:"form"`
	Storage StorageConfig `mapstructure:"storage"`
	Admin   AdminConfig   `mapstructure:"admin"`
}

// Load reads the JSON config at path and applies FORMSERVER_* environment
// overrides. An empty path skips the file and uses defaults plus environment.
func Load(path string) (Config, error) {
	v := viper.New()
	applyDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", defaultAddr)
	v.SetDefault("server.port", defaultPort)
	v.SetDefault("form.services", []string{})
	v.SetDefault("form.max_file_bytes", defaultMaxFileBytes)
	v.SetDefault("form.max_request_bytes", defaultMaxRequestBytes)
	v.SetDefault("storage.submissions_path", defaultSubmissionsPath)
	v.SetDefault("storage.uploads_dir", defaultUploadsDir)
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.password_hash", "")
	v.SetDefault("admin.token_ttl_seconds", defaultTokenTTLSeconds)
}

func (c *Config) normalise() {
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	c.Server.Port = strings.TrimSpace(c.Server.Port)
	if c.Server.Port == "" {
		c.Server.Port = defaultPort
	}
	if c.Server.Port[0] != ':' {
		c.Server.Port = ":" + c.Server.Port
	}

	services := make([]string, 0, len(c.Form.Services))
	for _, s := range c.Form.Services {
		if s = strings.TrimSpace(s); s != "" {
			services = append(services, s)
		}
	}
	c.Form.Services = services

	if c.Form.MaxFileBytes <= 0 {
		c.Form.MaxFileBytes = defaultMaxFileBytes
	}
	if c.Form.MaxRequestBytes <= 0 {
		c.Form.MaxRequestBytes = defaultMaxRequestBytes
	}
	if strings.TrimSpace(c.Storage.SubmissionsPath) == "" {
		c.Storage.SubmissionsPath = defaultSubmissionsPath
	}
	if strings.TrimSpace(c.Storage.UploadsDir) == "" {
		c.Storage.UploadsDir = defaultUploadsDir
	}
	if c.Admin.TokenTTLSeconds <= 0 {
		c.Admin.TokenTTLSeconds = defaultTokenTTLSeconds
	}
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	if c.Form.MaxRequestBytes < c.Form.MaxFileBytes {
		return errors.New("config: form.max_request_bytes must not be smaller than form.max_file_bytes")
	}
	return nil
}
