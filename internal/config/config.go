package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port               string
	SQLitePath         string
	MongoDBURI         string
	MongoDBName        string
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	BcryptCost         int
	SweepHour          int
	Issuer             string
}

func LoadConfig() *Config {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("Error loading .env file")
	}

	return &Config{
		Port:               GetString("AUTH_SERVICE_PORT", ":8080"),
		SQLitePath:         GetString("SQLITE_PATH", "auth.db"),
		MongoDBURI:         GetString("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDBName:        GetString("MONGODB_NAME", "shop_auth"),
		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		AccessTokenTTL:     GetDuration("ACCESS_TOKEN_TTL", time.Minute*15),
		RefreshTokenTTL:    GetDuration("REFRESH_TOKEN_TTL", time.Hour*24*7),
		BcryptCost:         GetInt("BCRYPT_COST", bcrypt.DefaultCost),
		SweepHour:          GetInt("SWEEP_HOUR", 3),
		Issuer:             GetString("TOKEN_ISSUER", "shop-app/auth-service"),
	}
}

// Validate rejects configurations that would weaken the token scheme.
// Access and refresh tokens must never share a signing secret.
func (c *Config) Validate() error {
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	if c.SweepHour < 0 || c.SweepHour > 23 {
		return errors.New("SWEEP_HOUR must be between 0 and 23")
	}
	return nil
}

func GetString(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func GetDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
