package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
)

const (
	osmTileURL         = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	osmAttribution     = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`
	mapboxTileTemplate = "https://api.mapbox.com/styles/v1/%s/tiles/{z}/{x}/{y}?access_token=%s"
	mapboxAttribution  = `&copy; <a href="https://www.mapbox.com/about/maps/">Mapbox</a> ` + osmAttribution
)

// Config holds all service settings, populated from environment variables.
// The env tag names the variable reported in validation errors.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" validate:"required"`
	LogLevel        string        `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat       string        `env:"LOG_FORMAT" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`

	// DataDir confines the InputData parameter of HTTP requests.
	DataDir string `env:"DATA_DIR" validate:"required"`

	// Boundary geometry.
	BoundaryPath       string `env:"BOUNDARY_PATH" validate:"required"`
	BoundaryCodeField  string `env:"BOUNDARY_CODE_FIELD" validate:"required"`
	BoundaryNameField  string `env:"BOUNDARY_NAME_FIELD"`
	BoundaryCodePrefix string `env:"BOUNDARY_CODE_PREFIX"`
	BoundaryCacheSize  int    `env:"BOUNDARY_CACHE_SIZE" validate:"gte=1"`

	// Output locations.
	ImageDir       string `env:"IMAGE_DIR" validate:"required"`
	HTMLDir        string `env:"HTML_DIR" validate:"required"`
	ReportDir      string `env:"REPORT_DIR" validate:"required"`
	ImageBaseURL   string `env:"IMAGE_BASE_URL" validate:"required"`
	ExportWorkbook bool   `env:"EXPORT_WORKBOOK"`

	// Map view.
	MapCenterLat       float64 `env:"MAP_CENTER_LAT" validate:"gte=-90,lte=90"`
	MapCenterLon       float64 `env:"MAP_CENTER_LON" validate:"gte=-180,lte=180"`
	MapZoom            int     `env:"MAP_ZOOM" validate:"gte=0,lte=22"`
	MapTileURL         string  `env:"MAP_TILE_URL" validate:"required"`
	MapTileAttribution string  `env:"MAP_TILE_ATTRIBUTION"`

	// Mapbox tiles replace OpenStreetMap when a token is present.
	MapboxToken   string `env:"MAPBOX_TOKEN"`
	MapboxEnabled bool   `env:"MAPBOX_ENABLED"`
	MapboxStyle   string `env:"MAPBOX_STYLE"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`

	// Artifact notifications are disabled when KafkaBrokers is empty.
	KafkaBrokers       []string `env:"KAFKA_BROKERS"`
	KafkaArtifactTopic string   `env:"KAFKA_ARTIFACT_TOPIC" validate:"required_with=KafkaBrokers"`
}

// NotificationsEnabled reports whether artifact events should be published.
func (c *Config) NotificationsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	var p parser
	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":5050"),
		LogLevel:        strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "json")),
		ShutdownTimeout: shutdownTimeout,
		DataDir:         sharedcfg.EnvOrDefault("DATA_DIR", "."),

		BoundaryPath:       sharedcfg.EnvOrDefault("BOUNDARY_PATH", "ne_110m_admin_1_states_provinces.shp"),
		BoundaryCodeField:  sharedcfg.EnvOrDefault("BOUNDARY_CODE_FIELD", "iso_3166_2"),
		BoundaryNameField:  sharedcfg.EnvOrDefault("BOUNDARY_NAME_FIELD", "name"),
		BoundaryCodePrefix: envOrDefaultAllowEmpty("BOUNDARY_CODE_PREFIX", "US-"),
		BoundaryCacheSize:  p.int("BOUNDARY_CACHE_SIZE", 8),

		ImageDir:       sharedcfg.EnvOrDefault("IMAGE_DIR", "output/images"),
		HTMLDir:        sharedcfg.EnvOrDefault("HTML_DIR", "output/html"),
		ReportDir:      sharedcfg.EnvOrDefault("REPORT_DIR", "output/reports"),
		ImageBaseURL:   sharedcfg.EnvOrDefault("IMAGE_BASE_URL", "/images/"),
		ExportWorkbook: p.bool("EXPORT_WORKBOOK", true),

		MapCenterLat: p.float("MAP_CENTER_LAT", 37),
		MapCenterLon: p.float("MAP_CENTER_LON", -95),
		MapZoom:      p.int("MAP_ZOOM", 4),

		MapboxToken: os.Getenv("MAPBOX_TOKEN"),
		MapboxStyle: sharedcfg.EnvOrDefault("MAPBOX_STYLE", "mapbox/streets-v12"),

		CORSAllowedOrigins: sharedcfg.ParseBrokers(os.Getenv("CORS_ALLOWED_ORIGINS")),
		KafkaArtifactTopic: sharedcfg.EnvOrDefault("KAFKA_ARTIFACT_TOPIC", "visit-artifacts"),
	}
	// Left nil when unset so required_with treats notifications as off.
	if brokers := sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")); len(brokers) > 0 {
		cfg.KafkaBrokers = brokers
	}

	cfg.MapboxEnabled = p.bool("MAPBOX_ENABLED", cfg.MapboxToken != "")
	if err := p.err(); err != nil {
		return nil, err
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	cfg.resolveTiles()

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveTiles picks the tile layer. An explicit MAP_TILE_URL always wins.
func (c *Config) resolveTiles() {
	c.MapTileURL = os.Getenv("MAP_TILE_URL")
	c.MapTileAttribution = os.Getenv("MAP_TILE_ATTRIBUTION")
	if c.MapTileURL != "" {
		return
	}
	if c.MapboxEnabled {
		c.MapTileURL = fmt.Sprintf(mapboxTileTemplate, c.MapboxStyle, c.MapboxToken)
		if c.MapTileAttribution == "" {
			c.MapTileAttribution = mapboxAttribution
		}
		return
	}
	c.MapTileURL = osmTileURL
	if c.MapTileAttribution == "" {
		c.MapTileAttribution = osmAttribution
	}
}

func validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})
	err := v.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("invalid %s: %q fails %s", fe.Field(), fmt.Sprint(fe.Value()), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// parser collects the first conversion error so Load can report it after
// building the whole struct.
type parser struct {
	first error
}

func (p *parser) err() error { return p.first }

func (p *parser) fail(key, raw string) {
	if p.first == nil {
		p.first = fmt.Errorf("invalid %s: %q", key, raw)
	}
}

func (p *parser) int(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		p.fail(key, raw)
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		p.fail(key, raw)
		return def
	}
	return f
}

func (p *parser) bool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		p.fail(key, raw)
		return def
	}
	return b
}

// envOrDefaultAllowEmpty distinguishes an unset variable from one set to "".
func envOrDefaultAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
