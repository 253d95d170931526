package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Server configuration
	ServerPort  string
	Environment string
	LogLevel    string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis configuration
	RedisAddress string
	CacheTTL     time.Duration

	// JWT configuration
	JWTSecret string

	// Remote Store configuration
	RemoteStoreAddress   string
	RemoteStoreWSAddress string
	RemoteStoreToken     string
	OrganizationID       string
	ProjectID            string

	// number of workers executing Remote Store calls
	Workers int
	// quiet period before re-deriving a view after a burst of changes
	DerivationDebounce time.Duration

	FrontendAddress string
}

// Global application configuration
var AppConfig Config

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	// Find .env file
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		// Try to find .env in parent directories
		envPath = filepath.Join("..", ".env")
		if _, err := os.Stat(envPath); os.IsNotExist(err) {
			envPath = filepath.Join("..", "..", ".env")
		}
	}

	// Load .env file if it exists
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			log.Warn().Err(err).Msg("error loading .env file")
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = generateRandomSecret(32)
		log.Warn().Msg("generated random JWT secret")
	}

	AppConfig = Config{
		ServerPort:           getEnv("PORT", "8080"),
		Environment:          getEnv("ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "5432"),
		DBUser:               getEnv("DB_USER", "postgres"),
		DBPassword:           getEnv("DB_PASSWORD", "postgres"),
		DBName:               getEnv("DB_NAME", "lumeer_engine"),
		RedisAddress:         getEnv("REDIS_ADDRESS", "localhost:6379"),
		CacheTTL:             getDuration("CACHE_TTL", 10*time.Minute),
		JWTSecret:            jwtSecret,
		RemoteStoreAddress:   getEnv("REMOTE_STORE_ADDRESS", "http://localhost:8080/lumeer-engine/rest"),
		RemoteStoreWSAddress: getEnv("REMOTE_STORE_WS_ADDRESS", "ws://localhost:8080/lumeer-engine/ws"),
		RemoteStoreToken:     os.Getenv("REMOTE_STORE_TOKEN"),
		OrganizationID:       os.Getenv("ORGANIZATION_ID"),
		ProjectID:            os.Getenv("PROJECT_ID"),
		Workers:              getInt("WORKERS", 4),
		DerivationDebounce:   getDuration("DERIVATION_DEBOUNCE", 100*time.Millisecond),
		FrontendAddress:      getEnv("FRONTEND_ADDRESS", "http://localhost:7000"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// generateRandomSecret generates a random hex secret of length bytes
func generateRandomSecret(length int) string {
	secret := make([]byte, length)
	if _, err := rand.Read(secret); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(secret)
}
