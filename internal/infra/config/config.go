package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Asia/Kolkata"`
	Port   int    `envconfig:"PORT" default:"8080"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	AMQPURL string `envconfig:"AMQP_URL"`

	Queues struct {
		Contact string `envconfig:"CONTACT_QUEUE" default:"contact_relay"`
	} `envconfig:""`

	Mailer struct {
		BaseURL string `envconfig:"MAILER_BASE_URL"`
		APIKey  string `envconfig:"MAILER_API_KEY"`
		From    string `envconfig:"MAILER_FROM" default:"noreply@matri-board.example"`
	} `envconfig:""`

	Payment struct {
		BaseURL   string `envconfig:"PAYMENT_BASE_URL"`
		KeyID     string `envconfig:"PAYMENT_KEY_ID"`
		KeySecret string `envconfig:"PAYMENT_KEY_SECRET"`
		Currency  string `envconfig:"PAYMENT_CURRENCY" default:"INR"`
	} `envconfig:""`

	Limits struct {
		ContactDaily int           `envconfig:"CONTACT_DAILY_LIMIT" default:"5"`
		RefTTL       time.Duration `envconfig:"REFDATA_TTL" default:"5m"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
