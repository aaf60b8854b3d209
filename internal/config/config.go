package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the study service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	QuestionsPath     string
	QuestionsCache    bool
	RedisURL          string
	RedisPingTimeout  time.Duration
	NATSURL           string
	NATSSubjectPrefix string
	SessionCookie     string
	SessionTTL        time.Duration
	JWTSecret         string
	AnalyticsCacheTTL time.Duration
	IntakeRateLimit   int
	IntakeRateWindow  time.Duration
	LogLevel          string
	LogFile           string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// AdminEnabled reports whether the admin API can be mounted.
func (c Config) AdminEnabled() bool {
	return strings.TrimSpace(c.JWTSecret) != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("STUDY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Equation Study")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "5000")
	v.SetDefault("database.url", "static/research.db")
	v.SetDefault("questions.path", "groupa.csv")
	v.SetDefault("questions.cache", false)
	v.SetDefault("redis.ping_timeout", "3s")
	v.SetDefault("nats.subject_prefix", "study")
	v.SetDefault("session.cookie", "study_session")
	v.SetDefault("session.ttl", "4h")
	v.SetDefault("analytics.cache_ttl", "1m")
	v.SetDefault("intake.rate_limit", 20)
	v.SetDefault("intake.rate_window", "1m")
	v.SetDefault("log.level", "info")

	sessionTTL, err := parseDuration(v, "session.ttl", 4*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid session ttl: %w", err)
	}

	analyticsTTL, err := parseDuration(v, "analytics.cache_ttl", time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid analytics cache ttl: %w", err)
	}

	redisPing, err := parseDuration(v, "redis.ping_timeout", 3*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid redis ping timeout: %w", err)
	}

	rateWindow, err := parseDuration(v, "intake.rate_window", time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid intake rate window: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		QuestionsPath:     v.GetString("questions.path"),
		QuestionsCache:    v.GetBool("questions.cache"),
		RedisURL:          v.GetString("redis.url"),
		RedisPingTimeout:  redisPing,
		NATSURL:           v.GetString("nats.url"),
		NATSSubjectPrefix: v.GetString("nats.subject_prefix"),
		SessionCookie:     v.GetString("session.cookie"),
		SessionTTL:        sessionTTL,
		JWTSecret:         v.GetString("jwt.secret"),
		AnalyticsCacheTTL: analyticsTTL,
		IntakeRateLimit:   v.GetInt("intake.rate_limit"),
		IntakeRateWindow:  rateWindow,
		LogLevel:          strings.ToLower(v.GetString("log.level")),
		LogFile:           v.GetString("log.file"),
	}

	if strings.TrimSpace(cfg.QuestionsPath) == "" {
		return Config{}, fmt.Errorf("questions path must be provided")
	}

	if cfg.IntakeRateLimit <= 0 {
		cfg.IntakeRateLimit = 20
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}

	return time.ParseDuration(raw)
}
