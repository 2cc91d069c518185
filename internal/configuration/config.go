package configuration

import (
	"encoding/json"
	"os"
	"time"
)

type MongoConfig struct {
	Uri                string `json:"uri"`
	Database           string `json:"database"`
	UsersCollection    string `json:"usersCollection"`
	GroupsCollection   string `json:"groupsCollection"`
	MessagesCollection string `json:"messagesCollection"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port"`
	SocketPort     int      `json:"socket_port"`
	SocketRoute    string   `json:"socket_route"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type AuthConfig struct {
	TokenSecret     string `json:"token_secret"`
	TokenTTLMinutes int    `json:"token_ttl_minutes"`
}

type Config struct {
	Mongo  MongoConfig  `json:"mongo"`
	Server ServerConfig `json:"server"`
	Auth   AuthConfig   `json:"auth"`
}

// TokenTTL returns the session token lifetime, defaulting to 24h.
func (a AuthConfig) TokenTTL() time.Duration {
	if a.TokenTTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.TokenTTLMinutes) * time.Minute
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

	return &config, nil
}
