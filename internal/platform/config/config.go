package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Judge0URL              string
	Judge0AuthToken        string
	Judge0Timeout          time.Duration
	Judge0AcceptedStatusID int

	EvaluationQueueName          string
	EvaluationLockPrefix         string
	EvaluationLockTTL            time.Duration
	EvaluationWorkers            int
	EvaluationBatchConcurrency   int
	EvaluationStopOnFirstFailure bool
	RunEmbeddedWorker            bool

	LanguageCacheKey string
	LanguageCacheTTL time.Duration

	LogLevel  string
	LogFormat string
	LogOutput string

	CORSAllowedOrigins []string
}

var AppConfig *Config

// Load reads the environment (and an optional .env file) into AppConfig.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:    getEnv("API_PORT", "8080"),
		JWTKey:     []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:     time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "tle_judge"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		Judge0URL:              getEnv("JUDGE0_URL", "http://localhost:2358"),
		Judge0AuthToken:        getEnv("JUDGE0_AUTH_TOKEN", ""),
		Judge0Timeout:          getEnvAsDuration("JUDGE0_TIMEOUT_SECONDS", 60*time.Second),
		Judge0AcceptedStatusID: getEnvAsInt("JUDGE0_ACCEPTED_STATUS_ID", 3),

		EvaluationQueueName:          getEnv("EVALUATION_QUEUE_NAME", "evaluation_queue"),
		EvaluationLockPrefix:         getEnv("EVALUATION_LOCK_PREFIX", "evaluation_lock:"),
		EvaluationLockTTL:            getEnvAsDuration("EVALUATION_LOCK_TTL_SECONDS", 300*time.Second),
		EvaluationWorkers:            getEnvAsInt("EVALUATION_WORKERS", 2),
		EvaluationBatchConcurrency:   getEnvAsInt("EVALUATION_BATCH_CONCURRENCY", 1),
		EvaluationStopOnFirstFailure: getEnvAsBool("EVALUATION_STOP_ON_FIRST_FAILURE", true),
		RunEmbeddedWorker:            getEnvAsBool("RUN_EMBEDDED_WORKER", true),

		LanguageCacheKey: getEnv("LANGUAGE_CACHE_KEY", "judge0_languages"),
		LanguageCacheTTL: getEnvAsDuration("LANGUAGE_CACHE_TTL_SECONDS", time.Hour),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogOutput: getEnv("LOG_OUTPUT", "stdout"),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode

	return AppConfig
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration reads a whole number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil && value > 0 {
		return time.Duration(value) * time.Second
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
