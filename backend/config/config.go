package config

import (
	"os"
	"strconv"
	"time"

	"buscapet/common"
)

// Config holds all configuration for the buscapet backend.
type Config struct {
	// Server configuration
	Port string

	// Database configuration
	DB common.DBConfig

	// Asset storage. Backend is "s3" or "local".
	StorageBackend string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UseSSL       bool
	LocalStoreDir  string
	LocalStoreURL  string

	// Scratch space for staged uploads.
	ScratchDir string

	// Message board
	MaxMessageLen int

	// Optional AMQP feed of newly registered cases. Disabled when empty.
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		DB: common.DBConfig{
			Host:            getEnv("MYSQL_HOST", "localhost"),
			Port:            getEnv("MYSQL_PORT", "3306"),
			User:            getEnv("MYSQL_USER", "server"),
			Password:        getEnv("MYSQL_PASSWORD", "secret"),
			Name:            getEnv("MYSQL_DB", "buscapet"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5)) * time.Minute,
			PingMaxWait:     time.Duration(getEnvInt("DB_PING_MAX_WAIT_SEC", 60)) * time.Second,
		},

		StorageBackend: getEnv("STORAGE_BACKEND", "s3"),
		S3Bucket:       getEnv("S3_BUCKET_NAME", ""),
		S3Region:       getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:     getEnv("S3_ENDPOINT", "s3.amazonaws.com"),
		S3AccessKey:    getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3UseSSL:       getEnvBool("S3_USE_SSL", true),
		LocalStoreDir:  getEnv("LOCAL_STORE_DIR", "/var/lib/buscapet/assets"),
		LocalStoreURL:  getEnv("LOCAL_STORE_URL", "/assets"),

		ScratchDir: getEnv("SCRATCH_DIR", "/tmp/buscapet_uploads"),

		MaxMessageLen: getEnvInt("MAX_MESSAGE_LEN", 100),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "buscapet"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "cases.new"),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}
