// Package config loads server settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devSecret = "recipehub-dev-secret"

type Config struct {
	Environment string
	Port        string

	Store       string
	MongoURI    string
	MongoDBName string

	JWTSecret string
	TokenTTL  time.Duration

	RedisURL      string
	RedisPassword string
	CacheTTL      time.Duration

	UploadDir     string
	MaxUploadMB   int64
	PublicBaseURL string

	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int

	LogLevel  string
	LogFormat string
}

// Load reads .env (when present) and the process environment.
func Load(envFiles ...string) (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Environment:    strings.ToLower(v.GetString("ENVIRONMENT")),
		Port:           normalizePort(v.GetString("PORT")),
		Store:          strings.ToLower(v.GetString("STORE")),
		MongoURI:       mongoURI(v),
		MongoDBName:    v.GetString("MONGO_DB_NAME"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		TokenTTL:       v.GetDuration("TOKEN_TTL"),
		RedisURL:       v.GetString("REDIS_URL"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		CacheTTL:       v.GetDuration("CACHE_TTL"),
		UploadDir:      v.GetString("UPLOAD_DIR"),
		MaxUploadMB:    v.GetInt64("MAX_UPLOAD_MB"),
		PublicBaseURL:  strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		AllowedOrigins: splitOrigins(v.GetString("ALLOWED_ORIGINS")),
		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
	}

	if cfg.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.JWTSecret = devSecret
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost" + cfg.Port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("PORT", "5000")
	v.SetDefault("STORE", "mongo")
	v.SetDefault("MONGO_DB_NAME", "recipesDB")
	v.SetDefault("TOKEN_TTL", 30*24*time.Hour)
	v.SetDefault("CACHE_TTL", 5*time.Minute)
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("MAX_UPLOAD_MB", 10)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Store {
	case "mongo", "memory":
	default:
		errs = append(errs, fmt.Errorf("STORE must be mongo or memory, got %q", c.Store))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development" || c.Environment == "dev"
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// mongoURI prefers MONGO_URI and otherwise builds an Atlas-style URI from
// MONGO_DB_USER / MONGO_DB_PASSWORD / MONGO_DB_HOST.
func mongoURI(v *viper.Viper) string {
	if uri := v.GetString("MONGO_URI"); uri != "" {
		return uri
	}
	user := v.GetString("MONGO_DB_USER")
	host := v.GetString("MONGO_DB_HOST")
	if user == "" || host == "" {
		return "mongodb://localhost:27017"
	}
	u := url.URL{
		Scheme: "mongodb+srv",
		User:   url.UserPassword(user, v.GetString("MONGO_DB_PASSWORD")),
		Host:   host,
		Path:   "/",
	}
	return u.String()
}

func normalizePort(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ":5000"
	}
	if port[0] != ':' {
		return ":" + port
	}
	return port
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
