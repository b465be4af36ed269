package configuration

import (
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	AppPort        int      `mapstructure:"app_port"`
	SocketPort     int      `mapstructure:"socket_port"`
	SocketRoute    string   `mapstructure:"socket_route"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type MongoConfig struct {
	Uri                     string `mapstructure:"uri"`
	Database                string `mapstructure:"database"`
	MessagesCollection      string `mapstructure:"messages_collection"`
	ConversationsCollection string `mapstructure:"conversations_collection"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"` // empty disables presence
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"` // empty disables the event bridge
	Topic   string   `mapstructure:"topic"`
}

type DirectoryConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout time.Duration
}

type MediaConfig struct {
	BaseURL string `mapstructure:"base_url"` // empty disables attachment resolution
}

type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second"`
	Burst     int     `mapstructure:"burst"`
}

type ChatConfig struct {
	MaxParticipants int `mapstructure:"max_participants"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Media     MediaConfig     `mapstructure:"media"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Chat      ChatConfig      `mapstructure:"chat"`
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()

	v.SetDefault("server.app_port", 8080)
	v.SetDefault("server.socket_port", 8081)
	v.SetDefault("server.socket_route", "ws")
	v.SetDefault("mongo.messages_collection", "messages")
	v.SetDefault("mongo.conversations_collection", "conversations")
	v.SetDefault("kafka.topic", "message.created")
	v.SetDefault("rate_limit.per_second", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("chat.max_participants", 50)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Directory.Timeout = 5 * time.Second
	return &config, nil
}
