package config

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Backend modes accepted by database.mode.
const (
	ModeAuto   = "auto"
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	License    LicenseConfig    `yaml:"license"`
	Auth       AuthConfig       `yaml:"auth"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds the HTTP bridge configuration.
type ServerConfig struct {
	// Host is the listen address. It defaults to 127.0.0.1 in local mode and
	// to every interface in remote mode.
	Host            string  `yaml:"host" env:"POS_HOST, overwrite"`
	Port            int     `yaml:"port" env:"POS_PORT, overwrite"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig selects and tunes the storage backend.
type DatabaseConfig struct {
	// Mode is one of auto, local or remote. Auto resolves to local when Path is set.
	Mode                   string `yaml:"mode" env:"POS_DB_MODE, overwrite"`
	Path                   string `yaml:"path" env:"POS_DB_PATH, overwrite"`
	DSN                    string `yaml:"dsn" env:"POS_DB_DSN, overwrite"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	MigrateRemote          bool   `yaml:"migrate_remote"`
	SeedAdmin              bool   `yaml:"seed_admin"`
}

// LicenseConfig holds the license authority settings.
type LicenseConfig struct {
	Secret               string        `yaml:"secret" env:"POS_LICENSE_SECRET, overwrite"`
	VerifyChecksum       *bool         `yaml:"verify_checksum"`
	CheckIntervalSeconds int           `yaml:"check_interval_seconds"`
	CheckInterval        time.Duration `yaml:"-"`
	// ProbeTimeoutSeconds bounds each hardware probe; zero waits for the probe.
	ProbeTimeoutSeconds int  `yaml:"probe_timeout_seconds"`
	DisableGate         bool `yaml:"disable_gate"`
}

// AuthConfig holds the session cache settings.
type AuthConfig struct {
	SessionTTLMinutes int           `yaml:"session_ttl_minutes"`
	SessionTTL        time.Duration `yaml:"-"`
}

// PushConfig holds the VAPID keys for low-stock web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key" env:"POS_VAPID_PUBLIC_KEY, overwrite"`
	PrivateKey string `yaml:"vapid_private_key" env:"POS_VAPID_PRIVATE_KEY, overwrite"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"POS_LOG_LEVEL, overwrite"`
	Pretty bool   `yaml:"pretty"`
}

// Load reads the configuration from the given path and applies environment overrides.
func Load(ctx context.Context, path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 20
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 10
	}
	if c.Server.CacheTTLSeconds <= 0 {
		c.Server.CacheTTLSeconds = 300
	}

	mode, err := c.Database.ResolveMode()
	if err != nil {
		return err
	}
	c.Database.Mode = mode
	if c.Server.Host == "" && mode == ModeLocal {
		c.Server.Host = "127.0.0.1"
	}
	if mode == ModeRemote && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required in remote mode")
	}

	if c.License.Secret == "" {
		c.License.Secret = DefaultLicenseSecret
	}
	if c.License.VerifyChecksum == nil {
		verify := true
		c.License.VerifyChecksum = &verify
	}
	if c.License.CheckIntervalSeconds <= 0 {
		c.License.CheckIntervalSeconds = 3600
	}
	c.License.CheckInterval = time.Duration(c.License.CheckIntervalSeconds) * time.Second

	if c.Auth.SessionTTLMinutes <= 0 {
		c.Auth.SessionTTLMinutes = 12 * 60
	}
	c.Auth.SessionTTL = time.Duration(c.Auth.SessionTTLMinutes) * time.Minute

	if c.Push.TTL <= 0 {
		c.Push.TTL = 3600
	}

	if c.WorkerPool.Size <= 0 {
		log.Warn().Msg("worker_pool.size is not set or invalid; defaulting to 1")
		c.WorkerPool.Size = 1
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	return nil
}

// Addr is the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ProbeTimeout is the per-strategy fingerprint timeout, zero for none.
func (l LicenseConfig) ProbeTimeout() time.Duration {
	return time.Duration(l.ProbeTimeoutSeconds) * time.Second
}

// ResolveMode turns the configured mode into local or remote. The answer only
// depends on the loaded file and environment, so it is computed once at startup.
func (d DatabaseConfig) ResolveMode() (string, error) {
	switch strings.ToLower(strings.TrimSpace(d.Mode)) {
	case "", ModeAuto:
		if d.Path != "" {
			return ModeLocal, nil
		}
		if d.DSN != "" {
			return ModeRemote, nil
		}
		return "", fmt.Errorf("database: neither path nor dsn is configured")
	case ModeLocal:
		if d.Path == "" {
			return "", fmt.Errorf("database.path is required in local mode")
		}
		return ModeLocal, nil
	case ModeRemote:
		return ModeRemote, nil
	default:
		return "", fmt.Errorf("database.mode %q is not one of auto, local, remote", d.Mode)
	}
}

// DefaultLicenseSecret is the shared secret compiled into both posd and keygen.
const DefaultLicenseSecret = "NEXAPOS_LICENSE_SECRET_2024"
