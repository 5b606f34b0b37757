package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCatalogURL          = "http://www.croustipeze.com/ressources/recipesdata.json"
	DefaultCatalogTimeout      = 30 * time.Second
	DefaultConfidenceThreshold = 0.40
	DefaultGeolocationTimeout  = 30 * time.Second
	DefaultClassificationTTL   = 24 * time.Hour
	DefaultClassifyAttempts    = 2
)

type Config struct {
	Env            string
	ServiceName    string
	ServiceVersion string

	Port string

	RedisURL string

	OtelExporterOTLPEndpoint string
	SentryDSN                string

	Catalog        CatalogConfig
	Classification ClassificationConfig
	Geolocation    GeolocationConfig
	Auth           AuthConfig
}

type CatalogConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	// RefreshInterval schedules background refreshes; zero disables them.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

type ClassificationConfig struct {
	Provider      string `yaml:"provider"`
	Endpoint      string `yaml:"endpoint"`
	ProjectID     string `yaml:"project_id"`
	Iteration     string `yaml:"iteration"`
	PredictionKey string `yaml:"-"`

	ConfidenceThreshold float64       `yaml:"confidence_threshold"`
	CacheTTL            time.Duration `yaml:"cache_ttl"`
	MaxAttempts         int           `yaml:"max_attempts"`
}

type GeolocationConfig struct {
	GoogleMapsAPIKey string        `yaml:"-"`
	Timeout          time.Duration `yaml:"timeout"`
	// Fallback position used when no provider can produce a reading.
	FallbackLatitude  *float64 `yaml:"fallback_latitude"`
	FallbackLongitude *float64 `yaml:"fallback_longitude"`
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                      os.Getenv("ENV"),
		ServiceName:              os.Getenv("SERVICE_NAME"),
		ServiceVersion:           os.Getenv("SERVICE_VERSION"),
		Port:                     os.Getenv("PORT"),
		RedisURL:                 os.Getenv("REDIS_URL"),
		OtelExporterOTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		SentryDSN:                os.Getenv("SENTRY_DSN"),
		Catalog: CatalogConfig{
			URL: os.Getenv("CATALOG_URL"),
		},
		Classification: ClassificationConfig{
			Endpoint:      os.Getenv("CUSTOM_VISION_ENDPOINT"),
			ProjectID:     os.Getenv("CUSTOM_VISION_PROJECT_ID"),
			Iteration:     os.Getenv("CUSTOM_VISION_ITERATION"),
			PredictionKey: os.Getenv("CUSTOM_VISION_PREDICTION_KEY"),
		},
		Geolocation: GeolocationConfig{
			GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
			Issuer:    os.Getenv("AUTH_JWT_ISSUER"),
		},
	}

	if v := os.Getenv("CATALOG_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CATALOG_TIMEOUT: %w", err)
		}
		cfg.Catalog.Timeout = d
	}
	if v := os.Getenv("CONFIDENCE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid CONFIDENCE_THRESHOLD: %w", err)
		}
		cfg.Classification.ConfidenceThreshold = f
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	if err := cfg.LoadFromYAML(path); err != nil {
		return nil, fmt.Errorf("failed to load YAML config: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromYAML overlays values from a YAML file. Values already set from the
// environment win; a missing file is not an error.
func (c *Config) LoadFromYAML(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var yamlConfig struct {
		Catalog        CatalogConfig        `yaml:"catalog"`
		Classification ClassificationConfig `yaml:"classification"`
		Geolocation    GeolocationConfig    `yaml:"geolocation"`
	}

	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if c.Catalog.URL == "" {
		c.Catalog.URL = yamlConfig.Catalog.URL
	}
	if c.Catalog.Timeout == 0 {
		c.Catalog.Timeout = yamlConfig.Catalog.Timeout
	}
	if yamlConfig.Catalog.RefreshInterval != 0 {
		c.Catalog.RefreshInterval = yamlConfig.Catalog.RefreshInterval
	}

	cl := yamlConfig.Classification
	if c.Classification.Provider == "" {
		c.Classification.Provider = cl.Provider
	}
	if c.Classification.Endpoint == "" {
		c.Classification.Endpoint = cl.Endpoint
	}
	if c.Classification.ProjectID == "" {
		c.Classification.ProjectID = cl.ProjectID
	}
	if c.Classification.Iteration == "" {
		c.Classification.Iteration = cl.Iteration
	}
	if c.Classification.ConfidenceThreshold == 0 {
		c.Classification.ConfidenceThreshold = cl.ConfidenceThreshold
	}
	if cl.CacheTTL != 0 {
		c.Classification.CacheTTL = cl.CacheTTL
	}
	if cl.MaxAttempts != 0 {
		c.Classification.MaxAttempts = cl.MaxAttempts
	}

	geo := yamlConfig.Geolocation
	if geo.Timeout != 0 {
		c.Geolocation.Timeout = geo.Timeout
	}
	if geo.FallbackLatitude != nil {
		c.Geolocation.FallbackLatitude = geo.FallbackLatitude
	}
	if geo.FallbackLongitude != nil {
		c.Geolocation.FallbackLongitude = geo.FallbackLongitude
	}

	return nil
}

func (c *Config) SetDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.ServiceName == "" {
		c.ServiceName = "cookbook"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "1.0.0"
	}
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.Catalog.URL == "" {
		c.Catalog.URL = DefaultCatalogURL
	}
	if c.Catalog.Timeout == 0 {
		c.Catalog.Timeout = DefaultCatalogTimeout
	}
	if c.Classification.Provider == "" {
		c.Classification.Provider = "customvision"
	}
	if c.Classification.ConfidenceThreshold == 0 {
		c.Classification.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if c.Classification.CacheTTL == 0 {
		c.Classification.CacheTTL = DefaultClassificationTTL
	}
	if c.Classification.MaxAttempts == 0 {
		c.Classification.MaxAttempts = DefaultClassifyAttempts
	}
	if c.Geolocation.Timeout == 0 {
		c.Geolocation.Timeout = DefaultGeolocationTimeout
	}
}

// FallbackPosition returns the configured static position, if both coordinates are set.
func (g GeolocationConfig) FallbackPosition() (lat, lon float64, ok bool) {
	if g.FallbackLatitude == nil || g.FallbackLongitude == nil {
		return 0, 0, false
	}
	return *g.FallbackLatitude, *g.FallbackLongitude, true
}

func (c *Config) validate() error {
	u, err := url.Parse(c.Catalog.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("CATALOG_URL must be an absolute http(s) URL, got %q", c.Catalog.URL)
	}
	if c.Catalog.Timeout < 0 {
		return fmt.Errorf("catalog timeout must be positive")
	}
	if c.Catalog.RefreshInterval < 0 {
		return fmt.Errorf("catalog refresh_interval must not be negative")
	}
	if t := c.Classification.ConfidenceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("confidence threshold must be within [0, 1], got %v", t)
	}
	if c.Classification.MaxAttempts < 1 {
		return fmt.Errorf("classification max_attempts must be at least 1")
	}
	if (c.Geolocation.FallbackLatitude == nil) != (c.Geolocation.FallbackLongitude == nil) {
		return fmt.Errorf("geolocation fallback_latitude and fallback_longitude must be set together")
	}
	if lat, lon, ok := c.Geolocation.FallbackPosition(); ok {
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return fmt.Errorf("geolocation fallback position %v,%v is out of range", lat, lon)
		}
	}
	return nil
}
