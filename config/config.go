package config

import (
	"fmt"
	"os"
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"livechat/models"
)

type Config struct {
	Port             string
	JWTSecret        string
	JWTExpiry        int // in hours
	LogLevel         string
	MaxMessageLength int
	MaxRoomNameLen   int

	// Per-IP limit on mutating endpoints (requests per minute).
	WriteRatePerMin int
	WriteRateBurst  int

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Content CMS endpoint; empty means the blog pages degrade to fallback.
	ContentEndpoint string
}

func Load() Config {
	return Config{
		Port:             getEnv("PORT", "8081"),
		JWTSecret:        getEnv("JWT_SECRET", "dev-super-secret-change-me"),
		JWTExpiry:        getEnvAsInt("JWT_EXPIRY", 24),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		MaxMessageLength: getEnvAsInt("MAX_MESSAGE_LENGTH", 1000),
		MaxRoomNameLen:   getEnvAsInt("MAX_ROOM_NAME_LENGTH", 50),
		WriteRatePerMin:  getEnvAsInt("WRITE_RATE_PER_MIN", 60),
		WriteRateBurst:   getEnvAsInt("WRITE_RATE_BURST", 10),
		DBHost:           getEnv("DB_HOST", ""),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", ""),
		DBName:           getEnv("DB_NAME", "livechat"),
		ContentEndpoint:  getEnv("CONTENT_GRAPHQL_ENDPOINT", ""),
	}
}

// HasDatabase reports whether a Postgres connection is configured. Without
// one the server falls back to the in-memory repositories.
func (c Config) HasDatabase() bool {
	return c.DBHost != ""
}

// gormConfig builds the gorm settings for every connection. TranslateError
// must stay on: the repositories match on gorm.ErrDuplicatedKey, which gorm
// only produces from driver unique-violation errors when this flag is set.
func gormConfig() *gorm.Config {
	return &gorm.Config{TranslateError: true}
}

// ConnectDB opens the Postgres connection and migrates the chat tables.
func ConnectDB(c Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.Membership{},
		&models.Message{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
