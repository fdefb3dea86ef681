package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port                          string   `mapstructure:"PORT"`
	DatabaseDriver                string   `mapstructure:"DATABASE_DRIVER"`
	DatabasePath                  string   `mapstructure:"DATABASE_PATH"`
	DatabaseDSN                   string   `mapstructure:"DATABASE_DSN"`
	JWTSecret                     string   `mapstructure:"JWT_SECRET"`
	CookieSecure                  bool     `mapstructure:"COOKIE_SECURE"`
	DiscordClientID               string   `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret           string   `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL            string   `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordBotToken               string   `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string   `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	FrontendURL                   string   `mapstructure:"FRONTEND_URL"`
	EnableCORS                    bool     `mapstructure:"ENABLE_CORS"`
	CORSOrigins                   []string `mapstructure:"CORS_ORIGINS"`
	LogLevel                      string   `mapstructure:"LOG_LEVEL"`
	LogFormat                     string   `mapstructure:"LOG_FORMAT"`
}

// DiscordLoginEnabled reports whether the OAuth client is configured.
func (c *Config) DiscordLoginEnabled() bool {
	return c.DiscordClientID != "" && c.DiscordClientSecret != ""
}

func LoadConfig() *Config {
	// A missing .env is fine; the process environment still applies.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_PATH", "retreat.db")
	viper.SetDefault("DISCORD_REDIRECT_URL", "http://127.0.0.1:8080/auth/discord/callback")
	viper.SetDefault("FRONTEND_URL", "http://127.0.0.1:3000/admin")
	viper.SetDefault("CORS_ORIGINS", []string{"http://127.0.0.1:3000"})
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")

	viper.BindEnv("DATABASE_DSN")
	viper.BindEnv("JWT_SECRET")
	viper.BindEnv("COOKIE_SECURE")
	viper.BindEnv("DISCORD_CLIENT_ID")
	viper.BindEnv("DISCORD_CLIENT_SECRET")
	viper.BindEnv("DISCORD_BOT_TOKEN")
	viper.BindEnv("DISCORD_NOTIFICATIONS_CHANNEL_ID")
	viper.BindEnv("ENABLE_CORS")

	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	// Comma separated lists arrive from the environment as a single entry.
	if len(config.CORSOrigins) == 1 && strings.Contains(config.CORSOrigins[0], ",") {
		config.CORSOrigins = strings.Split(config.CORSOrigins[0], ",")
	}

	if config.JWTSecret == "" {
		log.Println("JWT_SECRET is not set; tokens will be signed with an empty key")
	}

	return &config
}
