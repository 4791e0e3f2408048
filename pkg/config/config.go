package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppName string
	Port    string
	Env     string

	MongoURI               string
	MongoDatabase          string
	MongoConnectRetries    int
	MongoConnectRetryDelay time.Duration

	// UserStore selects where accounts live: "mongo" or "postgres".
	UserStore   string
	PostgresURL string

	// AuthProvider selects the bearer token verifier: "jwt" or "firebase".
	AuthProvider            string
	JWTSecret               string
	JWTIssuer               string
	FirebaseCredentialsPath string

	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RateLimitPerMinute int

	MetricsEnabled     bool
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string
}

// Load reads a .env file when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppName:                 getEnv("APP_NAME", "devconnect"),
		Port:                    getEnv("PORT", "5000"),
		Env:                     getEnv("ENV", "development"),
		MongoURI:                getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:           getEnv("MONGO_DATABASE", "devconnect"),
		MongoConnectRetries:     getEnvInt("MONGO_CONNECT_RETRIES", 5),
		MongoConnectRetryDelay:  getEnvDuration("MONGO_CONNECT_RETRY_DELAY", time.Second),
		UserStore:               getEnv("USER_STORE", "mongo"),
		PostgresURL:             getEnv("POSTGRES_URL", ""),
		AuthProvider:            getEnv("AUTH_PROVIDER", "jwt"),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		JWTIssuer:               getEnv("JWT_ISSUER", "devconnect"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		RedisDB:                 getEnvInt("REDIS_DB", 0),
		RateLimitPerMinute:      getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		MetricsEnabled:          getEnvBool("METRICS_ENABLED", true),
		RequestTimeout:          getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		ShutdownTimeout:         getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		CORSAllowedOrigins:      getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.MongoConnectRetries < 1 {
		errs = append(errs, errors.New("MONGO_CONNECT_RETRIES must be at least 1"))
	}

	switch c.UserStore {
	case "mongo":
	case "postgres":
		if c.PostgresURL == "" {
			errs = append(errs, errors.New("POSTGRES_URL is required when USER_STORE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("USER_STORE must be mongo or postgres, got %q", c.UserStore))
	}

	switch c.AuthProvider {
	case "jwt":
		if len(c.JWTSecret) < 16 {
			errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters when AUTH_PROVIDER=jwt"))
		} else if c.IsProduction() && len(c.JWTSecret) < 32 {
			errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters in production"))
		}
	case "firebase":
		if c.FirebaseCredentialsPath == "" {
			errs = append(errs, errors.New("FIREBASE_CREDENTIALS_PATH is required when AUTH_PROVIDER=firebase"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_PROVIDER must be jwt or firebase, got %q", c.AuthProvider))
	}

	if c.RequestTimeout <= 0 || c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT and SHUTDOWN_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction enables the stricter checks in Validate.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
