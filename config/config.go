package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	Server   ServerConfig
	Firebase FirebaseConfig
	Auth     AuthConfig
	Logger   LoggerConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type FirebaseConfig struct {
	// ProjectID selects the Firestore database; required in production.
	ProjectID string
	// ServiceAccountPath points at the admin credentials JSON. Empty means
	// application-default credentials.
	ServiceAccountPath string
}

type AuthConfig struct {
	// DevSecret enables the HS256 dev verifier instead of Firebase ID
	// tokens. Never set in production.
	DevSecret string
	Issuer    string
}

type LoggerConfig struct {
	Level string
}

func Load() *Config {
	_ = godotenv.Load(".env")

	return &Config{
		Server: ServerConfig{
			Port:         cast.ToString(getOrReturnDefault("PORT", "8080")),
			Env:          cast.ToString(getOrReturnDefault("APP_ENV", "development")),
			ReadTimeout:  cast.ToDuration(getOrReturnDefault("READ_TIMEOUT", 10*time.Second)),
			WriteTimeout: cast.ToDuration(getOrReturnDefault("WRITE_TIMEOUT", 10*time.Second)),
		},
		Firebase: FirebaseConfig{
			ProjectID:          cast.ToString(getOrReturnDefault("FIREBASE_PROJECT_ID", "")),
			ServiceAccountPath: cast.ToString(getOrReturnDefault("FIREBASE_SERVICE_ACCOUNT_PATH", "")),
		},
		Auth: AuthConfig{
			DevSecret: cast.ToString(getOrReturnDefault("AUTH_DEV_SECRET", "")),
			Issuer:    cast.ToString(getOrReturnDefault("AUTH_ISSUER", "beckon")),
		},
		Logger: LoggerConfig{
			Level: cast.ToString(getOrReturnDefault("LOGGER_LEVEL", "info")),
		},
	}
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
