package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/srgjo27/ticketchief/internal/platform/database"
	"github.com/srgjo27/ticketchief/internal/platform/logger"
)

const (
	CatalogFile     = "file"
	CatalogPostgres = "postgres"
)

type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Catalog  CatalogConfig   `yaml:"catalog"`
	Database database.Config `yaml:"database"`
	Redis    RedisConfig     `yaml:"redis"`
	Queue    QueueConfig     `yaml:"queue"`
	Log      logger.Config   `yaml:"log"`
	Metrics  MetricsConfig   `yaml:"metrics"`
	Tracing  TracingConfig   `yaml:"tracing"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	DocumentRoot string        `yaml:"document_root"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

type CatalogConfig struct {
	Source string `yaml:"source"`
	Path   string `yaml:"path"`
}

// RedisConfig selects the shared nonce store. NonceTTL bounds how long a
// token is remembered; zero remembers it forever.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Host     string        `yaml:"host"`
	Port     string        `yaml:"port"`
	NonceTTL time.Duration `yaml:"nonce_ttl"`
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type DelayRange struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

type QueueConfig struct {
	Admission  DelayRange `yaml:"admission"`
	Fulfilment DelayRange `yaml:"fulfilment"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type TracingConfig struct {
	ServiceName    string `yaml:"service_name"`
	JaegerEndpoint string `yaml:"jaeger_endpoint"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			DocumentRoot: "public",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			MaxBodyBytes: 1 << 20,
		},
		Catalog: CatalogConfig{
			Source: CatalogFile,
			Path:   "events.json",
		},
		Database: database.Config{
			Host:   "localhost",
			Port:   "5432",
			User:   "postgres",
			DBName: "ticketchief",
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			NonceTTL: 24 * time.Hour,
		},
		Queue: QueueConfig{
			Admission:  DelayRange{Min: 2 * time.Second, Max: 5 * time.Second},
			Fulfilment: DelayRange{Min: 4 * time.Second, Max: 8 * time.Second},
		},
		Log: logger.Config{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			ServiceName: "ticketchief",
		},
	}
}

// Load resolves the configuration from defaults, an optional YAML file, an
// optional .env file, the environment and finally command-line flags, each
// layer overriding the previous one. pflag.ErrHelp is returned unchanged
// when help was requested.
func Load(args []string, stderr io.Writer) (*Config, error) {
	flagSet := pflag.NewFlagSet("ticketchief", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)

	var (
		configPath = flagSet.String("config", "", "path to a YAML configuration file")
		envFile    = flagSet.String("env-file", ".env", "dotenv file loaded into the environment if present")
		addr       = flagSet.String("addr", "", "listen address for the ticket API")
		docRoot    = flagSet.String("document-root", "", "directory served for unmatched GET requests")
		source     = flagSet.String("catalog-source", "", `where events are loaded from: "file" or "postgres"`)
		catalog    = flagSet.String("catalog", "", "path to the events catalog file")
		logLevel   = flagSet.String("log-level", "", "log level (debug, info, warn, error)")
		metrics    = flagSet.String("metrics-addr", "", "listen address for Prometheus metrics; empty disables")
		useRedis   = flagSet.Bool("redis", false, "record nonces in Redis instead of memory")
	)

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()

	if *configPath != "" {
		if err := cfg.readYAML(*configPath); err != nil {
			return nil, err
		}
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", *envFile, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if flagSet.Changed("addr") {
		cfg.Server.Addr = *addr
	}
	if flagSet.Changed("document-root") {
		cfg.Server.DocumentRoot = *docRoot
	}
	if flagSet.Changed("catalog-source") {
		cfg.Catalog.Source = *source
	}
	if flagSet.Changed("catalog") {
		cfg.Catalog.Path = *catalog
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}
	if flagSet.Changed("metrics-addr") {
		cfg.Metrics.Addr = *metrics
	}
	if flagSet.Changed("redis") {
		cfg.Redis.Enabled = *useRedis
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields from environment variables. Setting REDIS_HOST
// also enables the Redis nonce store.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	vars := map[string]*string{
		"SERVER_ADDR":     &c.Server.Addr,
		"DOCUMENT_ROOT":   &c.Server.DocumentRoot,
		"CATALOG_SOURCE":  &c.Catalog.Source,
		"CATALOG_PATH":    &c.Catalog.Path,
		"DB_HOST":         &c.Database.Host,
		"DB_PORT":         &c.Database.Port,
		"DB_USER":         &c.Database.User,
		"DB_PASSWORD":     &c.Database.Password,
		"DB_NAME":         &c.Database.DBName,
		"REDIS_PORT":      &c.Redis.Port,
		"LOG_LEVEL":       &c.Log.Level,
		"LOG_FORMAT":      &c.Log.Format,
		"METRICS_ADDR":    &c.Metrics.Addr,
		"JAEGER_ENDPOINT": &c.Tracing.JaegerEndpoint,
	}
	for key, field := range vars {
		if v, ok := lookup(key); ok {
			*field = v
		}
	}

	if v, ok := lookup("REDIS_HOST"); ok && v != "" {
		c.Redis.Host = v
		c.Redis.Enabled = true
	}

	if v, ok := lookup("NONCE_TTL"); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("NONCE_TTL: %w", err)
		}
		c.Redis.NonceTTL = ttl
	}

	if v, ok := lookup("MAX_BODY_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_BODY_BYTES: %w", err)
		}
		c.Server.MaxBodyBytes = n
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes))
	}

	switch c.Catalog.Source {
	case CatalogFile:
		if c.Catalog.Path == "" {
			errs = append(errs, errors.New("catalog.path is required for a file catalog"))
		}
	case CatalogPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			errs = append(errs, errors.New("database.host and database.name are required for a postgres catalog"))
		}
	default:
		errs = append(errs, fmt.Errorf("catalog.source must be %q or %q, got %q", CatalogFile, CatalogPostgres, c.Catalog.Source))
	}

	if c.Redis.Enabled && c.Redis.Host == "" {
		errs = append(errs, errors.New("redis.host is required when redis is enabled"))
	}
	if c.Redis.NonceTTL < 0 {
		errs = append(errs, errors.New("redis.nonce_ttl must not be negative"))
	}

	for name, d := range map[string]DelayRange{"queue.admission": c.Queue.Admission, "queue.fulfilment": c.Queue.Fulfilment} {
		if d.Min < 0 || d.Max < d.Min {
			errs = append(errs, fmt.Errorf("%s must satisfy 0 <= min <= max, got [%s, %s]", name, d.Min, d.Max))
		}
	}

	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf(`log.format must be "json" or "console", got %q`, c.Log.Format))
	}

	return errors.Join(errs...)
}
