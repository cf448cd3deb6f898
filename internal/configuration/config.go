package configuration

import (
	"encoding/json"
	"os"
)

type MongoConfig struct {
	Uri                     string `json:"uri"`
	Database                string `json:"database"`
	UsersCollection         string `json:"usersCollection"`
	ConversationsCollection string `json:"conversationsCollection"`
	MemesCollection         string `json:"memesCollection"`
	SharesCollection        string `json:"sharesCollection"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port"`
	SocketPort     int      `json:"socket_port"`
	SocketRoute    string   `json:"socket_route"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type MemeConfig struct {
	SourceURL string `json:"source_url"`
}

type BotConfig struct {
	Model string `json:"model"`
}

type WorkerConfig struct {
	Concurrency int `json:"concurrency"`
}

type Config struct {
	ChatDatabase MongoConfig  `json:"mongo"`
	Server       ServerConfig `json:"server"`
	Memes        MemeConfig   `json:"memes"`
	Bot          BotConfig    `json:"bot"`
	Worker       WorkerConfig `json:"worker"`

	// Secrets come from the environment, not the config file.
	JWTSecret string `json:"-"`
	RedisURL  string `json:"-"`
}

func LoadConfig(config_path string) (*Config, error) {
	file, err := os.ReadFile(config_path)
	if err != nil {
		return nil, err
	}

	var config Config
	err = json.Unmarshal(file, &config)
	if err != nil {
		return nil, err
	}

	config.JWTSecret = os.Getenv("JWT_SECRET")
	config.RedisURL = os.Getenv("REDIS_URL")
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		config.ChatDatabase.Uri = uri
	}

	return &config, nil
}
