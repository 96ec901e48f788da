package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL          string
	RedisPoolSize     int
	RedisMinIdleConns int
	RedisMaxRetries   int
	DraftTTL          time.Duration

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubUUID         string

	// External event API
	EventAPIURL       string
	EventAPIKey       string
	EventAPIHMACKey   string
	SubmissionTimeout time.Duration
	SubmitLockTTL     time.Duration

	// Kafka
	KafkaURL            string
	KafkaSubmittedTopic string

	// Rate limiting
	RateLimitPerMinute int

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

// LoadEnv loads a .env file from the working directory when one exists.
func LoadEnv() {
	for _, path := range []string{".env", "../.env"} {
		if err := godotenv.Load(path); err == nil {
			log.Printf("Loaded environment variables from %s", path)
			return
		}
	}
	log.Println("No .env file found, using environment variables")
}

func LoadConfig() *Config {
	LoadEnv()

	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:          getEnv("REDIS_URL", "localhost:6379"),
		RedisPoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 50),
		RedisMinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
		RedisMaxRetries:   getEnvAsInt("REDIS_MAX_RETRIES", 3),
		DraftTTL:          getEnvAsDuration("DRAFT_TTL", "72h"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubUUID:         getEnv("PUBNUB_UUID", "event-builder"),

		// Event API
		EventAPIURL:       getEnv("EVENT_API_URL", "http://localhost:8081/api"),
		EventAPIKey:       getEnv("EVENT_API_KEY", ""),
		EventAPIHMACKey:   getEnv("EVENT_API_HMAC_KEY", ""),
		SubmissionTimeout: getEnvAsDuration("SUBMISSION_TIMEOUT", "15s"),
		SubmitLockTTL:     getEnvAsDuration("SUBMIT_LOCK_TTL", "30s"),

		// Kafka
		KafkaURL:            getEnv("KAFKA_URL", ""),
		KafkaSubmittedTopic: getEnv("KAFKA_SUBMITTED_TOPIC", "event-builder.events.submitted"),

		// Rate limiting
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// fall back to the default when the override is malformed
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
