package authhttp

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	authtransport "github.com/viant/authhttp/client/auth/transport"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the API root used when none is configured
	DefaultBaseURL = "http://localhost:8000/api/v1"

	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"

	configPathEnv = "AUTHHTTP_CONFIG"
)

// ClientOptions
//
// defines options for configuring a client.
type ClientOptions struct {
	BaseURL        string        `yaml:"baseURL" json:"baseURL,omitempty" env:"AUTHHTTP_BASE_URL" env-default:"http://localhost:8000/api/v1"`
	RefreshPath    string        `yaml:"refreshPath,omitempty" json:"refreshPath,omitempty" env:"AUTHHTTP_REFRESH_PATH" env-default:"/auth/refresh"`
	Timeout        time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" env:"AUTHHTTP_TIMEOUT" env-default:"30s"`
	RefreshTimeout time.Duration `yaml:"refreshTimeout,omitempty" json:"refreshTimeout,omitempty" env:"AUTHHTTP_REFRESH_TIMEOUT" env-default:"15s"`
	LogLevel       string        `yaml:"logLevel,omitempty" json:"logLevel,omitempty" env:"AUTHHTTP_LOG_LEVEL" env-default:"info"`
	Store          StoreOptions  `yaml:"store,omitempty" json:"store,omitempty"`
	// OAuth2 switches token refresh to the standard refresh_token grant when TokenURL is set
	OAuth2 OAuth2Options `yaml:"oauth2,omitempty" json:"oauth2,omitempty"`
}

// OAuth2Options configures refresh against an OAuth2 token endpoint
type OAuth2Options struct {
	TokenURL     string   `yaml:"tokenURL,omitempty" json:"tokenURL,omitempty" env:"AUTHHTTP_OAUTH2_TOKEN_URL"`
	ClientID     string   `yaml:"clientID,omitempty" json:"clientID,omitempty" env:"AUTHHTTP_OAUTH2_CLIENT_ID"`
	ClientSecret string   `yaml:"clientSecret,omitempty" json:"clientSecret,omitempty" env:"AUTHHTTP_OAUTH2_CLIENT_SECRET"`
	Scopes       []string `yaml:"scopes,omitempty" json:"scopes,omitempty" env:"AUTHHTTP_OAUTH2_SCOPES"`
}

// StoreOptions selects and configures the token store
type StoreOptions struct {
	Type string `yaml:"type" json:"type,omitempty" env:"AUTHHTTP_STORE" env-default:"memory"`
	// URL is an afs URL (path, file:// or mem://) of the file store
	URL       string        `yaml:"url,omitempty" json:"url,omitempty" env:"AUTHHTTP_STORE_URL"`
	RedisAddr string        `yaml:"redisAddr,omitempty" json:"redisAddr,omitempty" env:"AUTHHTTP_REDIS_ADDR" env-default:"localhost:6379"`
	RedisKey  string        `yaml:"redisKey,omitempty" json:"redisKey,omitempty" env:"AUTHHTTP_REDIS_KEY" env-default:"authhttp:session"`
	RedisTTL  time.Duration `yaml:"redisTTL,omitempty" json:"redisTTL,omitempty" env:"AUTHHTTP_REDIS_TTL"`
}

// Init fills zero values with defaults
func (o *ClientOptions) Init() {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.RefreshPath == "" {
		o.RefreshPath = authtransport.RefreshPath
	}
	if o.Store.Type == "" {
		o.Store.Type = StoreMemory
	}
	if o.Store.RedisKey == "" {
		o.Store.RedisKey = "authhttp:session"
	}
}

// LoadOptions loads options from path, then AUTHHTTP_CONFIG, then environment only.
// Environment variables override file values.
func LoadOptions(path string) (*ClientOptions, error) {
	var options ClientOptions
	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &options); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		options.Init()
		return &options, nil
	}
	if err := cleanenv.ReadEnv(&options); err != nil {
		return nil, fmt.Errorf("failed to read env config: %w", err)
	}
	options.Init()
	return &options, nil
}

// config returns the oauth2 client configuration, nil when no token endpoint is set
func (o *OAuth2Options) config() *oauth2.Config {
	if o.TokenURL == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     o.ClientID,
		ClientSecret: o.ClientSecret,
		Scopes:       o.Scopes,
		Endpoint:     oauth2.Endpoint{TokenURL: o.TokenURL},
	}
}
