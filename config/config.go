package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration holds the static settings needed to run the server.
type Configuration struct {
	Address               string `env:"ADDRESS" envDefault:":8080"`
	JwtSecret             string `env:"JWT_SECRET,required"`
	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI,required"`
	MongoDB_DBName        string `env:"MONGODB_DBNAME" envDefault:"servicehub"`
	CORS_Origins          string `env:"CORS_ORIGINS" envDefault:"*"` // comma separated, * = all
	CORS_AllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`
	RateLimit_Max         int    `env:"RATE_LIMIT_MAX" envDefault:"100"`
	RateLimit_Window      int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"` // seconds
	RateLimit_Enabled     bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	// Occurrence dates are computed in UTC; TIMEZONE only labels calendar output.
	Timezone string `env:"TIMEZONE" envDefault:"UTC"`

	// File storage (Google Cloud Storage). Empty bucket disables uploads.
	GCSBucket          string `env:"GCS_BUCKET"`
	GCSCredentialsJSON string `env:"GCS_CREDENTIALS_JSON"`
	GCSPrefix          string `env:"GCS_PREFIX" envDefault:"completions"`

	// Push notifications (Firebase Cloud Messaging)
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`
	NotifyWorkers           int    `env:"NOTIFY_WORKERS" envDefault:"4"`
	NotifyQueueSize         int    `env:"NOTIFY_QUEUE_SIZE" envDefault:"256"`

	// Mail
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"no-reply@servicehub.local"`
	// Visit reminder pass interval in minutes. 0 disables reminders.
	ReminderInterval int `env:"REMINDER_INTERVAL" envDefault:"60"`

	// Status change audit stream (Google Pub/Sub). Empty topic disables publishing.
	PubSubProjectID       string `env:"PUBSUB_PROJECT_ID"`
	PubSubTopic           string `env:"PUBSUB_TOPIC"`
	PubSubCredentialsJSON string `env:"PUBSUB_CREDENTIALS_JSON"`
	PubSubCreateTopic     bool   `env:"PUBSUB_CREATE_TOPIC" envDefault:"false"`

	// Series edit lock. Empty URL disables locking.
	RedisURL     string `env:"REDIS_URL"`
	RedisLockTTL int    `env:"REDIS_LOCK_TTL" envDefault:"30"` // seconds
}

// CORSOrigins splits CORS_ORIGINS.
func (c *Configuration) CORSOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORS_Origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// getEnvPath walks up from the working directory looking for config/env/<GO_ENV>.env.
func getEnvPath() string {
	goEnv := os.Getenv("GO_ENV")
	if goEnv == "" {
		goEnv = "development"
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			return filepath.Join(envDir, fmt.Sprintf("%s.env", goEnv))
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig loads the env file for GO_ENV (if any) plus explicit files, then parses the process environment.
// Variables already set in the environment win over file values.
func NewConfig(files ...string) (*Configuration, error) {
	if envPath := getEnvPath(); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			files = append([]string{envPath}, files...)
		}
	}

	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, fmt.Errorf("load env files %v: %w", files, err)
		}
	}

	cfg := Configuration{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
