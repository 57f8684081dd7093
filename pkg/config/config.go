package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StoreDriverFirestore = "firestore"
	StoreDriverMemory    = "memory"
)

type Config struct {
	ServerPort  string
	Environment string

	FirebaseProject            string
	FirebaseServiceAccountJSON string
	FirebaseServiceAccountPath string
	StorageBucket              string
	StoreDriver                string

	KhaltiSecretKey  string
	KhaltiBaseURL    string
	KhaltiReturnURL  string
	KhaltiWebsiteURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RabbitMQURL       string
	RentalEventsQueue string

	RateLimitEnabled bool

	// AdminUIDs are created as admin accounts at startup when running on the memory store.
	AdminUIDs []string
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		FirebaseProject:            getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		FirebaseServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		StorageBucket:              getEnv("STORAGE_BUCKET", ""),
		StoreDriver:                getEnv("STORE_DRIVER", StoreDriverFirestore),

		KhaltiSecretKey:  getEnv("KHALTI_SECRET_KEY", ""),
		KhaltiBaseURL:    getEnv("KHALTI_BASE_URL", "https://dev.khalti.com/api/v2"),
		KhaltiReturnURL:  getEnv("KHALTI_RETURN_URL", "https://example.com/payment/return"),
		KhaltiWebsiteURL: getEnv("KHALTI_WEBSITE_URL", "https://example.com"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       int(getEnvAsInt64("REDIS_DB", 0)),

		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		RentalEventsQueue: getEnv("RENTAL_EVENTS_QUEUE", "rental_events"),

		RateLimitEnabled: getEnvAsBool("RATE_LIMIT_ENABLED", true),

		AdminUIDs: getEnvAsList("ADMIN_UIDS"),
	}

	if config.StoreDriver != StoreDriverFirestore && config.StoreDriver != StoreDriverMemory {
		config.StoreDriver = StoreDriverFirestore
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
