package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Graph    GraphConfig    `yaml:"graph"`
	Postgres PostgresConfig `yaml:"postgres"`
	Logging  LoggingConfig  `yaml:"logging"`
	Search   SearchConfig   `yaml:"search"`
	Data     DataConfig     `yaml:"data"`
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	ReadTimeout       time.Duration `yaml:"readTimeout"`
	WriteTimeout      time.Duration `yaml:"writeTimeout"`
	IdleTimeout       time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"`
	AllowedOriginsCSV string        `yaml:"allowedOrigins"`
}

// GraphConfig describes connectivity to the Neo4j graph database.
type GraphConfig struct {
	URI            string `yaml:"uri"`
	Database       string `yaml:"database"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	MaxConnections int    `yaml:"maxConnections"`
}

// PostgresConfig describes the relational timetable store.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"` // text|json
	IncludeCaller bool   `yaml:"includeCaller"`
}

// SearchConfig holds planner defaults and limits.
type SearchConfig struct {
	Algorithm          string        `yaml:"algorithm"`
	MaxK               int           `yaml:"maxK"`
	MinTransferMinutes int           `yaml:"minTransferMinutes"`
	MaxResults         int           `yaml:"maxResults"`
	MaxExpansions      int           `yaml:"maxExpansions"`
	Timeout            time.Duration `yaml:"timeout"`
}

// DataConfig selects where graph and timetable data is read from.
type DataConfig struct {
	Backend     string `yaml:"backend"` // memory|neo4j|postgres
	DatasetPath string `yaml:"datasetPath"`
	Directed    bool   `yaml:"directed"`
}

// Data backends.
const (
	BackendMemory   = "memory"
	BackendNeo4j    = "neo4j"
	BackendPostgres = "postgres"
)

const (
	defaultHost               = "0.0.0.0"
	defaultPort               = 8080
	defaultReadTimeout        = 10 * time.Second
	defaultWriteTimeout       = 15 * time.Second
	defaultIdleTimeout        = 60 * time.Second
	defaultShutdownTimeout    = 10 * time.Second
	defaultLoggingLevel       = "info"
	defaultLoggingFormat      = "text"
	defaultGraphMaxSessions   = 10
	defaultPostgresMaxConns   = 4
	defaultAlgorithm          = "dijkstra"
	defaultMaxK               = 10
	defaultMinTransferMinutes = 2
	defaultMaxResults         = 5
	defaultSearchTimeout      = 5 * time.Second
)

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Host:            defaultHost,
			Port:            defaultPort,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Graph:    GraphConfig{MaxConnections: defaultGraphMaxSessions},
		Postgres: PostgresConfig{MaxConns: defaultPostgresMaxConns},
		Logging:  LoggingConfig{Level: defaultLoggingLevel, Format: defaultLoggingFormat},
		Search: SearchConfig{
			Algorithm:          defaultAlgorithm,
			MaxK:               defaultMaxK,
			MinTransferMinutes: defaultMinTransferMinutes,
			MaxResults:         defaultMaxResults,
			Timeout:            defaultSearchTimeout,
		},
		Data: DataConfig{Backend: BackendMemory, Directed: true},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.HTTP.Host = valueOrDefault("SERVER_HOST", cfg.HTTP.Host)
	cfg.HTTP.AllowedOriginsCSV = valueOrDefault("SERVER_ALLOWED_ORIGINS", cfg.HTTP.AllowedOriginsCSV)

	cfg.Logging.Level = valueOrDefault("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = valueOrDefault("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.IncludeCaller = parseBoolWithDefault("LOG_INCLUDE_CALLER", cfg.Logging.IncludeCaller)

	cfg.Graph.URI = valueOrDefault("GRAPH_URI", cfg.Graph.URI)
	cfg.Graph.Database = valueOrDefault("GRAPH_DATABASE", cfg.Graph.Database)
	cfg.Graph.Username = valueOrDefault("GRAPH_USERNAME", cfg.Graph.Username)
	cfg.Graph.Password = valueOrDefault("GRAPH_PASSWORD", cfg.Graph.Password)
	cfg.Graph.MaxConnections = parseIntWithDefault("GRAPH_MAX_CONNECTIONS", cfg.Graph.MaxConnections)

	cfg.Postgres.DSN = valueOrDefault("POSTGRES_DSN", cfg.Postgres.DSN)
	cfg.Postgres.MaxConns = int32(parseIntWithDefault("POSTGRES_MAX_CONNS", int(cfg.Postgres.MaxConns)))

	cfg.Search.Algorithm = valueOrDefault("ROUTE_ALGORITHM", cfg.Search.Algorithm)
	cfg.Search.MaxK = parseIntWithDefault("ROUTE_MAX_K", cfg.Search.MaxK)
	cfg.Search.MinTransferMinutes = parseIntWithDefault("JOURNEY_MIN_TRANSFER_MINUTES", cfg.Search.MinTransferMinutes)
	cfg.Search.MaxResults = parseIntWithDefault("JOURNEY_MAX_RESULTS", cfg.Search.MaxResults)
	cfg.Search.MaxExpansions = parseIntWithDefault("SEARCH_MAX_EXPANSIONS", cfg.Search.MaxExpansions)

	cfg.Data.Backend = valueOrDefault("DATA_BACKEND", cfg.Data.Backend)
	cfg.Data.DatasetPath = valueOrDefault("DATASET_PATH", cfg.Data.DatasetPath)
	cfg.Data.Directed = parseBoolWithDefault("GRAPH_DIRECTED", cfg.Data.Directed)

	port, err := parsePort("SERVER_PORT", cfg.HTTP.Port)
	if err != nil {
		return err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"SEARCH_TIMEOUT", &cfg.Search.Timeout},
	}
	for _, d := range durations {
		if err := parseDuration(d.key, d.dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects values no component can work with.
func (c Config) Validate() error {
	switch strings.ToLower(c.Data.Backend) {
	case BackendMemory, BackendNeo4j, BackendPostgres:
	default:
		return fmt.Errorf("invalid DATA_BACKEND %q: want memory, neo4j or postgres", c.Data.Backend)
	}
	switch strings.ToLower(c.Search.Algorithm) {
	case "bfs", "dijkstra", "yen", "yens":
	default:
		return fmt.Errorf("invalid ROUTE_ALGORITHM %q: want bfs, dijkstra or yen", c.Search.Algorithm)
	}
	if c.Search.MaxK <= 0 {
		return fmt.Errorf("ROUTE_MAX_K must be positive, got %d", c.Search.MaxK)
	}
	if c.Search.MinTransferMinutes < 0 {
		return fmt.Errorf("JOURNEY_MIN_TRANSFER_MINUTES must not be negative, got %d", c.Search.MinTransferMinutes)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("JOURNEY_MAX_RESULTS must be positive, got %d", c.Search.MaxResults)
	}
	if c.Data.Backend == BackendNeo4j && c.Graph.URI == "" {
		return fmt.Errorf("GRAPH_URI is required for the neo4j backend")
	}
	if c.Data.Backend == BackendPostgres && c.Postgres.DSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
	}
	return nil
}

// AllowedOrigins splits AllowedOriginsCSV, dropping blanks.
func (h HTTPConfig) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(h.AllowedOriginsCSV, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
