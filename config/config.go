package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultMaxDistance          = 4
	defaultSiblingDescentCutoff = -1
	defaultTxMaxRetries         = 3
	defaultJWTExpirationHours   = 24
	defaultInviteTTLHours       = 24 * 14
	defaultInviteSweepMinutes   = 30
)

type Config struct {
	// database path
	DatabasePath string

	// HTTP settings
	Port           string
	AllowedOrigins []string

	// auth settings
	JWTSecret     string
	JWTExpiration time.Duration

	// traversal window served by the tree endpoint
	MaxDistance          int
	SiblingDescentCutoff int

	// bound on the store's internal transaction retry loop
	TxMaxRetries int

	// claim invite lifecycle
	InviteTTL           time.Duration
	InviteSweepInterval time.Duration
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "kinship.db")

	origins := strings.Split(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:5173"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Printf("Warning: JWT_SECRET not set, using an ephemeral development secret")
		jwtSecret = "dev-only-insecure-secret"
	}

	cfg := Config{
		DatabasePath:         dbPath,
		Port:                 getEnvOrDefault("PORT", "8080"),
		AllowedOrigins:       origins,
		JWTSecret:            jwtSecret,
		JWTExpiration:        time.Duration(getEnvIntOrDefault("JWT_EXPIRATION_HOURS", defaultJWTExpirationHours)) * time.Hour,
		MaxDistance:          getEnvIntOrDefault("TREE_MAX_DISTANCE", defaultMaxDistance),
		SiblingDescentCutoff: getEnvIntOrDefault("TREE_SIBLING_DESCENT_CUTOFF", defaultSiblingDescentCutoff),
		TxMaxRetries:         getEnvIntOrDefault("TX_MAX_RETRIES", defaultTxMaxRetries),
		InviteTTL:            time.Duration(getEnvIntOrDefault("INVITE_TTL_HOURS", defaultInviteTTLHours)) * time.Hour,
		InviteSweepInterval:  time.Duration(getEnvIntOrDefault("INVITE_SWEEP_MINUTES", defaultInviteSweepMinutes)) * time.Minute,
	}

	return cfg, nil
}
