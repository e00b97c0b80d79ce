// Package config loads the server's YAML configuration file, applies
// environment variable overrides, and fills in defaults for every knob
// referenced by internal/store, internal/crypto, internal/handlers,
// internal/eventserver, internal/recycler and internal/httpserver.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level server configuration, loaded from YAML and then
// patched with CSYNC_*-prefixed environment variable overrides.
type Config struct {
	// HTTPAddr is the C9 HTTP surface's listen address.
	HTTPAddr string `yaml:"http_addr"`
	// EventsAddr is the C7 events server's listen address.
	EventsAddr string `yaml:"events_addr"`

	// DataDir holds the sqlite database file.
	DataDir string `yaml:"data_dir"`

	// TLSCertFile / TLSKeyFile are optional; both empty means plaintext HTTP.
	TLSCertFile string `yaml:"tls_cert_file"`
	TLSKeyFile  string `yaml:"tls_key_file"`

	// AdminPassword authenticates the loopback-only "admin" pseudo-user.
	AdminPassword string `yaml:"admin_password"`

	// JWTPrivateKeyFile / JWTPublicKeyFile are PEM-encoded RSA keys.
	JWTPrivateKeyFile string        `yaml:"jwt_private_key_file"`
	JWTPublicKeyFile  string        `yaml:"jwt_public_key_file"`
	JWTExpiry         time.Duration `yaml:"jwt_expiry"`

	SaltLength int `yaml:"salt_length"`

	// RecycleSeconds is both the recycler's tick interval and the TTL
	// applied to a blob's recycle_time on every write.
	RecycleSeconds uint64 `yaml:"recycle_seconds"`

	// MaxPayloadMiB caps the HTTP request body size, in mebibytes.
	MaxPayloadMiB int64 `yaml:"max_payload_mib"`

	// TruncateTextWidth bounds the display width of a text blob's summary.
	TruncateTextWidth int `yaml:"truncate_text_width"`
}

// Default returns the configuration every field falls back to when absent
// from both the YAML file and the environment.
func Default() Config {
	return Config{
		HTTPAddr:          ":8080",
		EventsAddr:        ":8081",
		DataDir:           "./data",
		AdminPassword:     "",
		JWTPrivateKeyFile: "./jwt_private.pem",
		JWTPublicKeyFile:  "./jwt_public.pem",
		JWTExpiry:         24 * time.Hour,
		SaltLength:        16,
		RecycleSeconds:    7 * 24 * 3600,
		MaxPayloadMiB:     10,
		TruncateTextWidth: 200,
	}
}

// Load reads path (if non-empty and present) over the defaults, then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, err
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.HTTPAddr = getenv("CSYNC_HTTP_ADDR", cfg.HTTPAddr)
	cfg.EventsAddr = getenv("CSYNC_EVENTS_ADDR", cfg.EventsAddr)
	cfg.DataDir = getenv("CSYNC_DATA_DIR", cfg.DataDir)
	cfg.TLSCertFile = getenv("CSYNC_TLS_CERT_FILE", cfg.TLSCertFile)
	cfg.TLSKeyFile = getenv("CSYNC_TLS_KEY_FILE", cfg.TLSKeyFile)
	cfg.AdminPassword = getenv("CSYNC_ADMIN_PASSWORD", cfg.AdminPassword)
	cfg.JWTPrivateKeyFile = getenv("CSYNC_JWT_PRIVATE_KEY_FILE", cfg.JWTPrivateKeyFile)
	cfg.JWTPublicKeyFile = getenv("CSYNC_JWT_PUBLIC_KEY_FILE", cfg.JWTPublicKeyFile)

	if v := os.Getenv("CSYNC_JWT_EXPIRY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.JWTExpiry = d
		}
	}
	if v := os.Getenv("CSYNC_SALT_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SaltLength = n
		}
	}
	if v := os.Getenv("CSYNC_RECYCLE_SECONDS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.RecycleSeconds = n
		}
	}
	if v := os.Getenv("CSYNC_MAX_PAYLOAD_MIB"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxPayloadMiB = n
		}
	}
	if v := os.Getenv("CSYNC_TRUNCATE_TEXT_WIDTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TruncateTextWidth = n
		}
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
