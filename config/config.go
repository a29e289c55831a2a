package config

import (
	"os"
	"strconv"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Game   GameConfig
}

type ServerConfig struct {
	HTTPPort string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

// GameConfig holds the policy tunables product left open: how long a
// session survives without its host, how many players must be ready
// before a start, whether kicked players keep their scores in the final
// results, and how long a finished session stays resolvable.
type GameConfig struct {
	HostGraceSeconds    int
	SessionEvictSeconds int
	MinReadyToStart     int
	RetainKickedScores  bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: getEnv("HTTP_PORT", "8080"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "postgres"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "quiz"),
			Password: getEnv("DB_PASSWORD", "quiz_password"),
			DBName:   getEnv("DB_NAME", "quiz"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "redis"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret"),
		},
		Game: GameConfig{
			HostGraceSeconds:    getEnvAsInt("HOST_GRACE_SECONDS", 60),
			SessionEvictSeconds: getEnvAsInt("SESSION_EVICT_SECONDS", 60),
			MinReadyToStart:     getEnvAsInt("MIN_READY_TO_START", 1),
			RetainKickedScores:  getEnvAsBool("RETAIN_KICKED_SCORES", false),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
