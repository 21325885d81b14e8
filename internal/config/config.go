package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/protest-map-etl/internal/domain"
)

// Default feed endpoints. Both are overridable for tests and self-hosted
// mirrors.
const (
	defaultMobilizeBaseURL = "https://api.mobilize.us/v1"
	defaultBlopCSVURL      = "https://docs.google.com/spreadsheets/d/e/2PACX-1vSpxUvu0PvCQrcCqIMJEEIm0jKh-wW84AlG-k2iz5Jz5HFbCKIm5Vp2JrKZ04kUN6iH9JvepvJLtP-y/pub?gid=141296177&single=true&output=csv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	SyncInterval    time.Duration

	// Source toggles and admission settings.
	IncludeMobilize bool
	IncludeBlop     bool
	IncludeManual   bool
	StartDate       time.Time // zero means "now"
	Bounds          domain.Bounds

	// Mapbox geocoding configuration.
	MapboxToken   string
	MapboxEnabled bool
	MapboxTimeout time.Duration

	// Mobilize feed configuration.
	MobilizeBaseURL string
	MobilizeOrgIDs  []int64
	MobilizeTimeout time.Duration

	// Blop spreadsheet feed configuration.
	BlopCSVURL   string
	BlopTimeout  time.Duration
	BlopTimezone *time.Location

	// Storage backend: "s3" or "file".
	StorageBackend string
	DataDir        string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3Region       string
	S3UseSSL       bool

	// Optional processed-events Kafka feed.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	syncInterval, err := parseDuration("SYNC_INTERVAL", "30m")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	mobilizeTimeout, err := parseDuration("MOBILIZE_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	blopTimeout, err := parseDuration("BLOP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	startDate, err := parseStartDate(os.Getenv("START_DATE"))
	if err != nil {
		return nil, err
	}
	bounds, err := parseBounds()
	if err != nil {
		return nil, err
	}
	orgIDs, err := parseOrgIDs(envOrDefault("MOBILIZE_ORG_IDS", "42068,42138,41722"))
	if err != nil {
		return nil, err
	}
	tz, err := parseTimezone(envOrDefault("BLOP_TIMEZONE", "Local"))
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		SyncInterval:    syncInterval,

		IncludeMobilize: envBool("INCLUDE_MOBILIZE", true),
		IncludeBlop:     envBool("INCLUDE_BLOP", true),
		IncludeManual:   envBool("INCLUDE_MANUAL", true),
		StartDate:       startDate,
		Bounds:          bounds,

		MapboxToken:   mapboxToken,
		MapboxEnabled: mapboxEnabled,
		MapboxTimeout: mapboxTimeout,

		MobilizeBaseURL: envOrDefault("MOBILIZE_BASE_URL", defaultMobilizeBaseURL),
		MobilizeOrgIDs:  orgIDs,
		MobilizeTimeout: mobilizeTimeout,

		BlopCSVURL:   envOrDefault("BLOP_CSV_URL", defaultBlopCSVURL),
		BlopTimeout:  blopTimeout,
		BlopTimezone: tz,

		StorageBackend: envOrDefault("STORAGE_BACKEND", "file"),
		DataDir:        envOrDefault("DATA_DIR", "data"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3Region:       envOrDefault("S3_REGION", "us-west-1"),
		S3UseSSL:       envBool("S3_USE_SSL", true),

		KafkaEnabled: envBool("KAFKA_ENABLED", false),
		KafkaBrokers: parseList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "included-events"),
	}

	switch cfg.StorageBackend {
	case "file":
	case "s3":
		if cfg.S3Endpoint == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "" || cfg.S3Bucket == "" {
			return nil, errors.New("STORAGE_BACKEND is s3 but S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY or S3_BUCKET is not set")
		}
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND %q (want file or s3)", cfg.StorageBackend)
	}

	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.IncludeMobilize && len(cfg.MobilizeOrgIDs) == 0 {
		return nil, errors.New("INCLUDE_MOBILIZE is true but MOBILIZE_ORG_IDS is empty")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

// parseStartDate accepts a date or an RFC3339 timestamp. Empty means "now",
// resolved at serve time.
func parseStartDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid START_DATE %q", v)
}

func parseBounds() (domain.Bounds, error) {
	b := domain.ContinentalUS
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"BOUNDS_MIN_LAT", &b.MinLat},
		{"BOUNDS_MAX_LAT", &b.MaxLat},
		{"BOUNDS_MIN_LON", &b.MinLon},
		{"BOUNDS_MAX_LON", &b.MaxLon},
	} {
		v := os.Getenv(f.key)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return domain.Bounds{}, fmt.Errorf("invalid %s", f.key)
		}
		*f.dst = parsed
	}
	if b.MinLat >= b.MaxLat || b.MinLon >= b.MaxLon {
		return domain.Bounds{}, errors.New("invalid bounds: min must be below max")
	}
	return b, nil
}

func parseOrgIDs(v string) ([]int64, error) {
	var ids []int64
	for _, part := range parseList(v) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MOBILIZE_ORG_IDS entry %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseTimezone(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid BLOP_TIMEZONE %q", name)
	}
	return loc, nil
}

func parseList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
