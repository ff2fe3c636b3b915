package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Session store kinds, tried in the order given by SESSION_STORES
const (
	SessionStoreDB     = "db"
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
	SessionStoreCookie = "cookie"
)

type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Session   SessionConfig   `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Admin     AdminConfig     `mapstructure:",squash"`
	Invite    InviteConfig    `mapstructure:",squash"`
	Meeting   MeetingConfig   `mapstructure:",squash"`
	AccessLog AccessLogConfig `mapstructure:",squash"`
	Archive   ArchiveConfig   `mapstructure:",squash"`
	Log       LogConfig       `mapstructure:",squash"`
}

type ServerConfig struct {
	BindAddress         string        `mapstructure:"bind_address"`
	TLSDomains          string        `mapstructure:"tls_domains"` // e.g. "example.com,example2.com"
	DebugMode           bool          `mapstructure:"debug_mode"`
	BaseURL             string        `mapstructure:"base_url"`
	CORSOrigins         []string      `mapstructure:"cors_origins"`
	TrustedProxies      []string      `mapstructure:"trusted_proxies"` // empty trusts no proxy headers
	MaintenanceInterval time.Duration `mapstructure:"maintenance_interval"`
}

// DatabaseConfig selects the backend: MySQL if MYSQL_DSN is set, then
// Postgres if POSTGRES_DSN is set, then SQLite
type DatabaseConfig struct {
	MySQLDSN    string `mapstructure:"mysql_dsn"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
	SQLiteFile  string `mapstructure:"sqlite_file"`
}

type SessionConfig struct {
	Secret       string        `mapstructure:"session_secret"`
	CookieName   string        `mapstructure:"session_cookie_name"`
	IdleTimeout  time.Duration `mapstructure:"session_idle_timeout"`
	Stores       []string      `mapstructure:"session_stores"`
	SecureCookie bool          `mapstructure:"session_secure_cookie"`
}

type RedisConfig struct {
	Addr         string        `mapstructure:"redis_addr"`
	Password     string        `mapstructure:"redis_password"`
	DB           int           `mapstructure:"redis_db"`
	VerifyLimit  int           `mapstructure:"verify_rate_limit"`
	VerifyWindow time.Duration `mapstructure:"verify_rate_window"`
}

// AdminConfig holds the single shared admin credential. PasswordHash (bcrypt)
// wins over Password when both are set.
type AdminConfig struct {
	Password     string `mapstructure:"admin_password"`
	PasswordHash string `mapstructure:"admin_password_hash"`
}

type InviteConfig struct {
	CodeLength  int  `mapstructure:"invite_code_length"`
	MaxAttempts int  `mapstructure:"invite_max_attempts"`
	SingleUse   bool `mapstructure:"invite_single_use"`
}

type MeetingConfig struct {
	JitsiDomain string `mapstructure:"jitsi_domain"`
	RoomNameZH  string `mapstructure:"room_name_zh"`
	RoomNameEN  string `mapstructure:"room_name_en"`
}

type AccessLogConfig struct {
	Enabled       bool   `mapstructure:"access_log_enabled"`
	FilePath      string `mapstructure:"access_log_file"`
	MaxSize       int64  `mapstructure:"access_log_max_size"`
	RetentionDays int    `mapstructure:"access_log_retention_days"`
}

// ArchiveConfig is where rotated access logs go. S3 wins over Dir.
type ArchiveConfig struct {
	Dir        string `mapstructure:"archive_dir"`
	S3Bucket   string `mapstructure:"archive_s3_bucket"`
	S3Region   string `mapstructure:"archive_s3_region"`
	S3Prefix   string `mapstructure:"archive_s3_prefix"`
	S3Endpoint string `mapstructure:"archive_s3_endpoint"`
	S3Auth     string `mapstructure:"archive_s3_auth"` // "key:secret", empty for the default credential chain
}

type LogConfig struct {
	Level  string `mapstructure:"log_level"`
	Format string `mapstructure:"log_format"` // json | console
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bind_address", "0.0.0.0:8080")
	v.SetDefault("tls_domains", "")
	v.SetDefault("debug_mode", false)
	v.SetDefault("base_url", "")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("trusted_proxies", []string{})
	v.SetDefault("maintenance_interval", "1h")

	v.SetDefault("mysql_dsn", "")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("sqlite_file", "meetgate.db")

	v.SetDefault("session_secret", "")
	v.SetDefault("session_cookie_name", "JITSI_SESSION")
	v.SetDefault("session_idle_timeout", "2h")
	v.SetDefault("session_stores", []string{SessionStoreDB, SessionStoreRedis, SessionStoreMemory, SessionStoreCookie})
	v.SetDefault("session_secure_cookie", false)

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("verify_rate_limit", 10)
	v.SetDefault("verify_rate_window", "1m")

	v.SetDefault("admin_password", "")
	v.SetDefault("admin_password_hash", "")

	v.SetDefault("invite_code_length", 8)
	v.SetDefault("invite_max_attempts", 10)
	v.SetDefault("invite_single_use", false)

	v.SetDefault("jitsi_domain", "meet.jit.si")
	v.SetDefault("room_name_zh", "在线面试")
	v.SetDefault("room_name_en", "Online Interview")

	v.SetDefault("access_log_enabled", true)
	v.SetDefault("access_log_file", "logs/meeting_access.log")
	v.SetDefault("access_log_max_size", 10*1024*1024)
	v.SetDefault("access_log_retention_days", 30)

	v.SetDefault("archive_dir", "")
	v.SetDefault("archive_s3_bucket", "")
	v.SetDefault("archive_s3_region", "us-east-1")
	v.SetDefault("archive_s3_prefix", "access-logs")
	v.SetDefault("archive_s3_endpoint", "")
	v.SetDefault("archive_s3_auth", "")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

// Load reads defaults, then the optional YAML file, then environment variables.
// An empty path looks for ./config.yaml and ./config/config.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Session.Stores = splitList(cfg.Session.Stores)
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)
	cfg.Server.TrustedProxies = splitList(cfg.Server.TrustedProxies)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitList accepts both YAML lists and comma separated env values
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	if len(c.Session.Secret) < 32 {
		return errors.New("config: SESSION_SECRET must be at least 32 characters")
	}
	if c.Admin.Password == "" && c.Admin.PasswordHash == "" {
		return errors.New("config: one of ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required")
	}
	if c.Session.IdleTimeout <= 0 {
		return errors.New("config: SESSION_IDLE_TIMEOUT must be positive")
	}
	if len(c.Session.Stores) == 0 {
		return errors.New("config: SESSION_STORES is empty")
	}
	for _, kind := range c.Session.Stores {
		switch kind {
		case SessionStoreDB, SessionStoreRedis, SessionStoreMemory, SessionStoreCookie:
		default:
			return fmt.Errorf("config: unknown session store %q", kind)
		}
	}
	if c.Invite.CodeLength <= 0 {
		return errors.New("config: INVITE_CODE_LENGTH must be positive")
	}
	if c.Invite.MaxAttempts <= 0 {
		return errors.New("config: INVITE_MAX_ATTEMPTS must be positive")
	}
	return nil
}
