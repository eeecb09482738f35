package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"go-c2rcc/internal/algorithm"
)

// Network definition sources
const (
	NetSourceFile  = "file"
	NetSourceHTTP  = "http"
	NetSourceAzure = "azure"
)

type Config struct {
	Host               string        `yaml:"host"`
	Port               string        `yaml:"port"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	NetFetchTimeout    time.Duration `yaml:"net_fetch_timeout"`
	ProcessTimeout     time.Duration `yaml:"process_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
	MaxPixels          int           `yaml:"max_pixels"`

	// Batch processing
	Workers          int           `yaml:"workers"`
	QueueSize        int           `yaml:"queue_size"`
	PixelConcurrency int           `yaml:"pixel_concurrency"`
	ChunkSize        int           `yaml:"chunk_size"`
	JobRetention     time.Duration `yaml:"job_retention"`

	// Network definitions
	NetSource         string `yaml:"net_source"`
	NetDir            string `yaml:"net_dir"`
	NetBaseURL        string `yaml:"net_base_url"`
	AzureAccount      string `yaml:"azure_account"`
	AzureKey          string `yaml:"-"`
	AzureContainer    string `yaml:"azure_container"`
	AzurePrefix       string `yaml:"azure_prefix"`
	Sensor            string `yaml:"sensor"`
	NetSet            string `yaml:"net_set"`
	AlternativeNetDir string `yaml:"alternative_net_dir"`

	// Ancillary defaults for pixels without their own values
	Ozone           float64 `yaml:"ozone"`
	SurfacePressure float64 `yaml:"surface_pressure"`

	Algorithm algorithm.Config `yaml:"algorithm"`
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// Default returns the configuration used when neither a file nor the
// environment says otherwise.
func Default() *Config {
	return &Config{
		Host:               "0.0.0.0",
		Port:               "8080",
		RequestTimeout:     60 * time.Second,
		NetFetchTimeout:    30 * time.Second,
		ProcessTimeout:     5 * time.Minute,
		MaxRequestBodySize: 32 * 1024 * 1024, // 32MB
		MaxPixels:          250000,
		Workers:            4,
		QueueSize:          64,
		PixelConcurrency:   8,
		ChunkSize:          1024,
		JobRetention:       time.Hour,
		NetSource:          NetSourceFile,
		NetDir:             "nets",
		Sensor:             "meris",
		Ozone:              330,
		SurfacePressure:    1000,
		Algorithm:          algorithm.DefaultConfig(),
	}
}

// LoadFromEnv reads the optional YAML file named by C2RCC_CONFIG and then
// applies environment overrides.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv("C2RCC_CONFIG"))
}

// Load reads the YAML file at path (if any) on top of the defaults, then
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Host = getEnvOrDefault("HOST", cfg.Host)
	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.RequestTimeout = parseDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.NetFetchTimeout = parseDurationOrDefault("NET_FETCH_TIMEOUT", cfg.NetFetchTimeout)
	cfg.ProcessTimeout = parseDurationOrDefault("PROCESS_TIMEOUT", cfg.ProcessTimeout)
	cfg.MaxRequestBodySize = parseIntOrDefault("MAX_REQUEST_BODY_SIZE", cfg.MaxRequestBodySize)
	cfg.MaxPixels = int(parseIntOrDefault("MAX_PIXELS", int64(cfg.MaxPixels)))

	cfg.Workers = int(parseIntOrDefault("WORKERS", int64(cfg.Workers)))
	cfg.QueueSize = int(parseIntOrDefault("QUEUE_SIZE", int64(cfg.QueueSize)))
	cfg.PixelConcurrency = int(parseIntOrDefault("PIXEL_CONCURRENCY", int64(cfg.PixelConcurrency)))
	cfg.ChunkSize = int(parseIntOrDefault("CHUNK_SIZE", int64(cfg.ChunkSize)))
	cfg.JobRetention = parseDurationOrDefault("JOB_RETENTION", cfg.JobRetention)

	cfg.NetSource = strings.ToLower(getEnvOrDefault("NET_SOURCE", cfg.NetSource))
	cfg.NetDir = getEnvOrDefault("NET_DIR", cfg.NetDir)
	cfg.NetBaseURL = getEnvOrDefault("NET_BASE_URL", cfg.NetBaseURL)
	cfg.AzureAccount = getEnvOrDefault("AZURE_STORAGE_ACCOUNT", cfg.AzureAccount)
	cfg.AzureKey = getEnvOrDefault("AZURE_STORAGE_KEY", cfg.AzureKey)
	cfg.AzureContainer = getEnvOrDefault("AZURE_CONTAINER", cfg.AzureContainer)
	cfg.AzurePrefix = getEnvOrDefault("AZURE_PREFIX", cfg.AzurePrefix)
	cfg.Sensor = getEnvOrDefault("SENSOR", cfg.Sensor)
	cfg.NetSet = getEnvOrDefault("NET_SET", cfg.NetSet)
	cfg.AlternativeNetDir = getEnvOrDefault("ALTERNATIVE_NET_DIR", cfg.AlternativeNetDir)

	cfg.Ozone = parseFloatOrDefault("OZONE", cfg.Ozone)
	cfg.SurfacePressure = parseFloatOrDefault("SURFACE_PRESSURE", cfg.SurfacePressure)
	cfg.Algorithm.Salinity = parseFloatOrDefault("SALINITY", cfg.Algorithm.Salinity)
	cfg.Algorithm.Temperature = parseFloatOrDefault("TEMPERATURE", cfg.Algorithm.Temperature)
	cfg.Algorithm.OutputUncertainties = parseBoolOrDefault("OUTPUT_UNCERTAINTIES", cfg.Algorithm.OutputUncertainties)
}

// Validate checks server, batch and network source settings as well as the
// algorithm knobs.
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.NetFetchTimeout <= 0 || c.ProcessTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, process=%s)",
			c.RequestTimeout, c.NetFetchTimeout, c.ProcessTimeout)
	}
	if c.Workers <= 0 || c.QueueSize <= 0 || c.PixelConcurrency <= 0 || c.ChunkSize <= 0 || c.MaxPixels <= 0 {
		return fmt.Errorf("workers, queue size, pixel concurrency, chunk size and max pixels must be > 0")
	}

	switch c.NetSource {
	case NetSourceFile:
		if c.NetDir == "" {
			return fmt.Errorf("NET_DIR is required for net source %q", c.NetSource)
		}
	case NetSourceHTTP:
		if c.NetBaseURL == "" {
			return fmt.Errorf("NET_BASE_URL is required for net source %q", c.NetSource)
		}
	case NetSourceAzure:
		if c.AzureAccount == "" || c.AzureKey == "" || c.AzureContainer == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT, AZURE_STORAGE_KEY and AZURE_CONTAINER are required for net source %q", c.NetSource)
		}
	default:
		return fmt.Errorf("unknown NET_SOURCE %q (want file, http or azure)", c.NetSource)
	}

	if err := c.Algorithm.Validate(); err != nil {
		return fmt.Errorf("algorithm: %w", err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
