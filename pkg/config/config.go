package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	QR         QRConfig
	CORS       CORSConfig
	Log        LogConfig
	Attendance AttendanceConfig
	Bootstrap  BootstrapConfig
	Metrics    MetricsConfig
	Docs       DocsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// QRConfig controls QR token lifetime and image rendering.
type QRConfig struct {
	TokenTTL  time.Duration
	ImageSize int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AttendanceConfig holds the classification thresholds and the clock used to
// decide what "today" means for the school.
type AttendanceConfig struct {
	Timezone       string
	LateThreshold  string
	EarlyThreshold string
	ScanDebounce   time.Duration
	// AbsenceSweepAt is the HH:MM at which teachers with no record are
	// marked Absent. Empty disables the sweep.
	AbsenceSweepAt string
}

// BootstrapConfig seeds the first administrator when none exists.
type BootstrapConfig struct {
	Enabled  bool
	UserID   string
	Password string
	Name     string
	Email    string
}

type MetricsConfig struct {
	Enabled bool
}

type DocsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 8*time.Hour),
	}

	cfg.QR = QRConfig{
		TokenTTL:  parseDuration(v.GetString("QR_TOKEN_TTL"), 8*time.Hour),
		ImageSize: v.GetInt("QR_IMAGE_SIZE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Attendance = AttendanceConfig{
		Timezone:       v.GetString("SCHOOL_TIMEZONE"),
		LateThreshold:  v.GetString("ATTENDANCE_LATE_THRESHOLD"),
		EarlyThreshold: v.GetString("ATTENDANCE_EARLY_THRESHOLD"),
		ScanDebounce:   parseDuration(v.GetString("SCAN_DEBOUNCE_WINDOW"), time.Minute),
		AbsenceSweepAt: strings.TrimSpace(v.GetString("ABSENCE_SWEEP_AT")),
	}

	cfg.Bootstrap = BootstrapConfig{
		Enabled:  v.GetBool("BOOTSTRAP_ADMIN_ENABLED"),
		UserID:   v.GetString("BOOTSTRAP_ADMIN_USER_ID"),
		Password: v.GetString("BOOTSTRAP_ADMIN_PASSWORD"),
		Name:     v.GetString("BOOTSTRAP_ADMIN_NAME"),
		Email:    v.GetString("BOOTSTRAP_ADMIN_EMAIL"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}
	cfg.Docs = DocsConfig{Enabled: v.GetBool("ENABLE_DOCS")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "school_attendance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "sma-attendance-api")
	v.SetDefault("JWT_EXPIRATION", "8h")

	v.SetDefault("QR_TOKEN_TTL", "8h")
	v.SetDefault("QR_IMAGE_SIZE", 256)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHOOL_TIMEZONE", "Local")
	v.SetDefault("ATTENDANCE_LATE_THRESHOLD", "09:05")
	v.SetDefault("ATTENDANCE_EARLY_THRESHOLD", "16:55")
	v.SetDefault("SCAN_DEBOUNCE_WINDOW", "60s")
	v.SetDefault("ABSENCE_SWEEP_AT", "")

	v.SetDefault("BOOTSTRAP_ADMIN_ENABLED", true)
	v.SetDefault("BOOTSTRAP_ADMIN_USER_ID", "ADMIN001")
	v.SetDefault("BOOTSTRAP_ADMIN_PASSWORD", "admin123")
	v.SetDefault("BOOTSTRAP_ADMIN_NAME", "System Administrator")
	v.SetDefault("BOOTSTRAP_ADMIN_EMAIL", "admin@school.edu")

	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("ENABLE_DOCS", true)
}

// Location resolves the configured school timezone, falling back to the
// process local zone.
func (c AttendanceConfig) Location() *time.Location {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
