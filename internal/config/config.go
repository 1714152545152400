package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	S3BucketName       string
	PublicAssetBaseURL string // when empty, image URLs are presigned

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion        string
	SNSAdminTopicARN string

	AllowedOrigins []string // CORS allowed origins

	// ConcealAccountExistence makes forgot-password answer unknown emails
	// with the same success response as known ones.
	ConcealAccountExistence bool
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Customers             string
	Addresses             string
	Orders                string
	ChatMessages          string
	ChatThreads           string
	AdminNotifications    string
	CustomerNotifications string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:  getEnv("APP_PORT", "3000"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Customers:             getEnv("DYNAMO_TABLE_CUSTOMERS", "customers"),
			Addresses:             getEnv("DYNAMO_TABLE_ADDRESSES", "customer_addresses"),
			Orders:                getEnv("DYNAMO_TABLE_ORDERS", "orders"),
			ChatMessages:          getEnv("DYNAMO_TABLE_CHAT_MESSAGES", "chat_messages"),
			ChatThreads:           getEnv("DYNAMO_TABLE_CHAT_THREADS", "chat_threads"),
			AdminNotifications:    getEnv("DYNAMO_TABLE_ADMIN_NOTIFICATIONS", "admin_notifications"),
			CustomerNotifications: getEnv("DYNAMO_TABLE_CUSTOMER_NOTIFICATIONS", "customer_notifications"),
		},

		S3BucketName:       getEnv("S3_BUCKET_NAME", "water-delivery-assets"),
		PublicAssetBaseURL: strings.TrimRight(getEnv("PUBLIC_ASSET_BASE_URL", ""), "/"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 12)) * time.Hour,

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion:        getEnv("SNS_REGION", "us-east-1"),
		SNSAdminTopicARN: getEnv("SNS_ADMIN_TOPIC_ARN", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		ConcealAccountExistence: getEnvBool("CONCEAL_ACCOUNT_EXISTENCE", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
