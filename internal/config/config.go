package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Discord  DiscordConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type DiscordConfig struct {
	Enabled        bool
	BotToken       string
	ForumChannelID string
	APIBaseURL     string
	Currency       string
}

type AuthConfig struct {
	EditToken string
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("DISCORD_ENABLED", false)
	viper.SetDefault("DISCORD_API_BASE_URL", "https://discord.com/api/v10")
	viper.SetDefault("DISCORD_CURRENCY", "$")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Discord: DiscordConfig{
			Enabled:        viper.GetBool("DISCORD_ENABLED"),
			BotToken:       viper.GetString("DISCORD_BOT_TOKEN"),
			ForumChannelID: viper.GetString("DISCORD_FORUM_CHANNEL_ID"),
			APIBaseURL:     viper.GetString("DISCORD_API_BASE_URL"),
			Currency:       viper.GetString("DISCORD_CURRENCY"),
		},
		Auth: AuthConfig{
			EditToken: viper.GetString("AUTH_EDIT_TOKEN"),
		},
	}
}
