package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port        string
	Env         string
	APIUrl      string
	FrontendURL string
	LogLevel    string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBTimeZone string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret              string
	JWTAccessTokenDuration time.Duration

	// Label identity printed on generated agreements
	LabelName      string
	LabelAddress   string
	LabelRefPrefix string

	// Contract documents
	ContractTemplatePath string
	ContractLayoutPath   string
	ContractsDeployRoot  string
	PrivateStorageRoot   string

	// Contract mirror (S3 compatible) - optional fallback for signed uploads
	ContractsS3Endpoint        string
	ContractsS3Region          string
	ContractsS3AccessKeyID     string
	ContractsS3SecretAccessKey string
	ContractsS3UsePathStyle    bool
	ContractsS3Bucket          string

	// Security
	RateLimitRequests int
	RateLimitDuration time.Duration
	RenderMaxPerDay   int

	// CORS
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

func New() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		APIUrl:      getEnv("API_URL", "http://localhost:8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "halcyon"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "halcyon_db"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),
		DBTimeZone: getEnv("DB_TIMEZONE", "UTC"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// JWT
		JWTSecret:              getEnv("JWT_SECRET", "your-secret-key"),
		JWTAccessTokenDuration: getEnvAsDuration("JWT_ACCESS_TOKEN_DURATION", "1h"),

		// Label
		LabelName:      getEnv("LABEL_NAME", "Halcyon Records"),
		LabelAddress:   getEnv("LABEL_ADDRESS", ""),
		LabelRefPrefix: getEnv("LABEL_REF_PREFIX", "HAL"),

		// Contract documents
		ContractTemplatePath: getEnv("CONTRACT_TEMPLATE_PATH", "assets/contracts/split-agreement-template.pdf"),
		ContractLayoutPath:   getEnv("CONTRACT_LAYOUT_PATH", ""),
		ContractsDeployRoot:  getEnv("CONTRACTS_DEPLOY_ROOT", "/var/www/app"),
		PrivateStorageRoot:   getEnv("PRIVATE_STORAGE_ROOT", ""),

		// Contract mirror
		ContractsS3Endpoint:        getEnv("CONTRACTS_S3_ENDPOINT", ""),
		ContractsS3Region:          getEnv("CONTRACTS_S3_REGION", "us-east-1"),
		ContractsS3AccessKeyID:     getEnv("CONTRACTS_S3_ACCESS_KEY_ID", ""),
		ContractsS3SecretAccessKey: getEnv("CONTRACTS_S3_SECRET_ACCESS_KEY", ""),
		ContractsS3UsePathStyle:    getEnv("CONTRACTS_S3_USE_PATH_STYLE", "true") == "true",
		ContractsS3Bucket:          getEnv("CONTRACTS_S3_BUCKET", ""),

		// Security
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitDuration: getEnvAsDuration("RATE_LIMIT_DURATION", "1m"),
		RenderMaxPerDay:   getEnvAsInt("RENDER_MAX_PER_DAY", 200),

		// CORS
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		AllowedMethods: getEnvAsSlice("ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowedHeaders: getEnvAsSlice("ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
	}
}

// ContractsMirrorEnabled reports whether the S3 fallback for signed uploads is configured.
func (c *Config) ContractsMirrorEnabled() bool {
	return c.ContractsS3Bucket != "" && c.ContractsS3AccessKeyID != "" && c.ContractsS3SecretAccessKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}
	return time.Hour
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
