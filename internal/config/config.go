package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio. Se construye una sola vez
// en el arranque y se pasa por referencia a los constructores.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	DBSchema    string `env:"DB_SCHEMA" envDefault:"public"`

	JWTSecret       string        `env:"JWT_SECRET,required"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`
	AuthTokenTTL    time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"5m"`

	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"*"`
	SiteURL        string `env:"SITE_URL,required"`

	TelegramBotToken      string `env:"TELEGRAM_BOT_TOKEN,required"`
	TelegramChatID        string `env:"TELEGRAM_CHAT_ID"`
	TelegramWebhookSecret string `env:"TELEGRAM_WEBHOOK_SECRET"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
