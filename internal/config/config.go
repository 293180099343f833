package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendDisk   = "disk"
	BackendS3     = "s3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Metrics MetricsConfig `yaml:"metrics"`
	Publish PublishConfig `yaml:"publish"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	MaxUploadBytes int64         `yaml:"maxUploadBytes"`
	CacheMaxAge    time.Duration `yaml:"cacheMaxAge"`
}

type StorageConfig struct {
	Backend string   `yaml:"backend"`
	DataDir string   `yaml:"dataDir"`
	S3      S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"usePathStyle"`
	// Credentials come from the environment only.
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type PublishConfig struct {
	MetadataRetries   int  `yaml:"metadataRetries"`
	GenerateChecksums bool `yaml:"generateChecksums"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used for keys absent from the file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			MaxUploadBytes: 512 << 20,
			CacheMaxAge:    time.Hour,
		},
		Storage: StorageConfig{Backend: BackendSQLite, DataDir: "./data"},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		Publish: PublishConfig{MetadataRetries: 5, GenerateChecksums: true},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads and parses a YAML config file, then applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML config data.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MAVEN_USERNAME"); v != "" {
		c.Auth.Username = v
	}
	if v := os.Getenv("MAVEN_PASSWORD"); v != "" {
		c.Auth.Password = v
	}
	if v := os.Getenv("MAVEN_S3_ACCESS_KEY_ID"); v != "" {
		c.Storage.S3.AccessKeyID = v
	}
	if v := os.Getenv("MAVEN_S3_SECRET_ACCESS_KEY"); v != "" {
		c.Storage.S3.SecretAccessKey = v
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes < 0 {
		return fmt.Errorf("server.maxUploadBytes must not be negative")
	}
	if c.Auth.Username == "" || c.Auth.Password == "" {
		return fmt.Errorf("auth username and password must be configured")
	}
	if c.Publish.MetadataRetries < 1 {
		return fmt.Errorf("publish.metadataRetries must be at least 1")
	}

	switch c.Storage.Backend {
	case BackendSQLite, BackendBolt, BackendDisk:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("storage.dataDir is required for the %s backend", c.Storage.Backend)
		}
	case BackendS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Metrics.Enabled && (c.Metrics.Path == "" || c.Metrics.Path[0] != '/') {
		return fmt.Errorf("metrics.path must start with /")
	}
	return nil
}
