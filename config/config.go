package config

import (
	"log"
	"net"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	AppHost string
	AppPort string
	AppMode string
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppHost: getEnv("WS_HOST", "localhost"),
		AppPort: getEnv("WS_PORT", "8765"),
		AppMode: getEnv("APP_MODE", "debug"),
	}
}

// Addr returns the host:port the server binds to.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.AppHost, c.AppPort)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
