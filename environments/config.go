package environments

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Gateway  GatewayConfig
	Campaign CampaignConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// GatewayConfig points at the WhatsApp HTTP gateway that owns the actual
// session (pairing, QR, connection lifecycle). This service only consumes its
// REST and webhook contract.
type GatewayConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type CampaignConfig struct {
	// MessageDelay is the pause between recipients of one campaign; transport
	// throughput limits require ordered, delayed delivery.
	MessageDelay time.Duration
	// CheckpointEvery is the persistence cadence of the recipient loop.
	CheckpointEvery int
	MediaMaxBytes   int64
	UploadDir       string
}

type AuthConfig struct {
	APIKey        string
	WebhookAPIKey string
}

func Load() *Config {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: GetEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "3306"),
			User:     GetEnv("DB_USER", "campaigns"),
			Password: GetEnv("DB_PASSWORD", "campaigns123"),
			DBName:   GetEnv("DB_NAME", "whatsapp_campaigns"),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvAsInt("REDIS_DB", 0),
		},
		Gateway: GatewayConfig{
			BaseURL: GetEnv("GATEWAY_URL", "http://localhost:3000"),
			APIKey:  GetEnv("GATEWAY_API_KEY", ""),
			Timeout: time.Duration(GetEnvAsInt("GATEWAY_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Campaign: CampaignConfig{
			MessageDelay:    GetEnvAsDuration("CAMPAIGN_MESSAGE_DELAY", 2000*time.Millisecond),
			CheckpointEvery: GetEnvAsInt("CAMPAIGN_CHECKPOINT_EVERY", 10),
			MediaMaxBytes:   int64(GetEnvAsInt("CAMPAIGN_MEDIA_MAX_BYTES", 64<<20)),
			UploadDir:       GetEnv("UPLOAD_DIR", "./uploads"),
		},
		Auth: AuthConfig{
			APIKey:        GetEnv("API_KEY", ""),
			WebhookAPIKey: GetEnv("WEBHOOK_API_KEY", ""),
		},
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
