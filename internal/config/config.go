package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the gateway.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Firebase    FirebaseConfig
	Store       StoreConfig
	Auth        AuthConfig
	Session     SessionConfig
	Context     ContextConfig
	Logger      LoggerConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxConn      int
}

// FirebaseConfig is the opaque backend connection configuration:
// project identifier and service-account credentials.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// Store drivers.
const (
	DriverFirestore = "firestore"
	DriverBolt      = "bolt"
)

type StoreConfig struct {
	Driver   string
	BoltPath string
}

// Auth modes.
const (
	AuthModeFirebase = "firebase"
	AuthModeLocal    = "local"
)

type AuthConfig struct {
	Mode     string
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

type SessionConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the gateway can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "taskmaster-gateway"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:      getInt("SERVER_MAX_CONN", 0),
		},
		Firebase: FirebaseConfig{
			ProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
			CredentialsFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		},
		Store: StoreConfig{
			Driver:   getString("STORE_DRIVER", DriverBolt),
			BoltPath: getString("BOLTDB_PATH", "./data/store.db"),
		},
		Auth: AuthConfig{
			Mode:     getString("AUTH_MODE", AuthModeLocal),
			Secret:   os.Getenv("AUTH_SECRET"),
			Issuer:   getString("AUTH_ISSUER", "taskmaster-gateway"),
			TokenTTL: getDuration("AUTH_TOKEN_TTL", 24*time.Hour),
		},
		Session: SessionConfig{
			IdleTTL:       getDuration("SESSION_IDLE_TTL", 30*time.Minute),
			SweepInterval: getDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Address returns the host:port the HTTP server binds to.
func (c *Config) Address() string {
	return c.HTTP.Host + ":" + c.HTTP.Port
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverFirestore:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required with STORE_DRIVER=%s", DriverFirestore)
		}
	case DriverBolt:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Auth.Mode {
	case AuthModeFirebase:
		if c.Store.Driver != DriverFirestore {
			return fmt.Errorf("AUTH_MODE=%s requires STORE_DRIVER=%s", AuthModeFirebase, DriverFirestore)
		}
	case AuthModeLocal:
		if c.Auth.Secret == "" {
			return fmt.Errorf("AUTH_SECRET is required with AUTH_MODE=%s", AuthModeLocal)
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.Auth.Mode)
	}
	return nil
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
