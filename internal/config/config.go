package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Consul   ConsulConfig
}

type ServerConfig struct {
	Port           string
	ServiceName    string
	ServiceAddress string
	ServiceID      string
	Host           string
}

type MongoDBConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
	PoolTTL  time.Duration
}

type RabbitMQConfig struct {
	URI      string
	Exchange string
}

type ConsulConfig struct {
	ConsulAddress string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "6680"),
			ServiceName:    getEnv("REVIEW_SERVICE_NAME", "review-service"),
			ServiceAddress: getEnv("REVIEW_SERVICE_ADDRESS", "review-service"),
			ServiceID:      getEnv("REVIEW_SERVICE_NAME", "review-service") + "-" + getEnv("HOSTNAME", "review"),
			Host:           getEnv("HOST", "0.0.0.0"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGO_URI", ""),
			Database: getEnv("MONGO_DATABASE", "review_service"),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PWD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolTTL:  getEnvAsDuration("REDIS_POOL_TTL", 10*time.Minute),
		},
		RabbitMQ: RabbitMQConfig{
			URI:      getEnv("RABBITMQ_URI", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", ""),
		},
		Consul: ConsulConfig{
			ConsulAddress: getEnv("CONSUL_ADDR", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		n, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid int env var %s: %v", key, err)
			return defaultValue
		}
		return n
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err != nil {
			log.Printf("invalid duration env var %s: %v", key, err)
			return defaultValue
		}
		return d
	}
	return defaultValue
}
