package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"mensajero/internal/jobs"
	"mensajero/internal/pkg/errs"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageDynamoDB = "dynamodb"
)

// Config holds every setting of the service. Empty optional addresses
// (REDIS_ADDR, KAFKA_BROKERS, ROUTING_BASE_URL) switch the feature off.
type Config struct {
	HTTPPort string `yaml:"http_port"`
	LogLevel string `yaml:"log_level"`
	Storage  string `yaml:"storage"`

	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSslMode  string `yaml:"db_sslmode"`

	DynamoDBTable    string `yaml:"dynamodb_table"`
	DynamoDBEndpoint string `yaml:"dynamodb_endpoint"`
	AWSRegion        string `yaml:"aws_region"`

	RedisAddr string `yaml:"redis_addr"`

	KafkaBrokers      []string `yaml:"kafka_brokers"`
	KafkaArchiveTopic string   `yaml:"kafka_archive_topic"`

	RoutingBaseURL       string  `yaml:"routing_base_url"`
	RoutingAPIKey        string  `yaml:"routing_api_key"`
	RoutingProfile       string  `yaml:"routing_profile"`
	PriceBaseFare        float64 `yaml:"price_base_fare"`
	PricePerKm           float64 `yaml:"price_per_km"`
	RouteCacheTTLSeconds int     `yaml:"route_cache_ttl_seconds"`

	LocationRateLimitPerMinute int    `yaml:"location_rate_limit_per_minute"`
	ArchiveReconcileSchedule   string `yaml:"archive_reconcile_schedule"`
}

func DefaultConfig() Config {
	return Config{
		HTTPPort:                   "8080",
		LogLevel:                   "info",
		Storage:                    StorageMemory,
		DBPort:                     "5432",
		DBSslMode:                  "disable",
		DynamoDBTable:              "orders",
		KafkaArchiveTopic:          "orders.delivered",
		RoutingProfile:             "driving-car",
		PriceBaseFare:              2.5,
		PricePerKm:                 1.2,
		RouteCacheTTLSeconds:       86400,
		LocationRateLimitPerMinute: 60,
		ArchiveReconcileSchedule:   jobs.DefaultArchiveSchedule,
	}
}

// LoadConfig layers defaults, the YAML file named by CONFIG_FILE, .env and
// the process environment, later sources winning.
func LoadConfig() (Config, error) {
	return loadConfig(".env", os.LookupEnv)
}

func loadConfig(envFile string, lookupEnv func(string) (string, bool)) (Config, error) {
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read %s: %w", envFile, err)
	}

	lookup := func(key string) (string, bool) {
		if v, ok := lookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	cfg := DefaultConfig()
	if path, ok := lookup("CONFIG_FILE"); ok && path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to unmarshal YAML: %w", err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"HTTP_PORT":                  &cfg.HTTPPort,
		"LOG_LEVEL":                  &cfg.LogLevel,
		"STORAGE":                    &cfg.Storage,
		"DB_HOST":                    &cfg.DBHost,
		"DB_PORT":                    &cfg.DBPort,
		"DB_USER":                    &cfg.DBUser,
		"DB_PASSWORD":                &cfg.DBPassword,
		"DB_NAME":                    &cfg.DBName,
		"DB_SSLMODE":                 &cfg.DBSslMode,
		"DYNAMODB_TABLE":             &cfg.DynamoDBTable,
		"DYNAMODB_ENDPOINT":          &cfg.DynamoDBEndpoint,
		"AWS_REGION":                 &cfg.AWSRegion,
		"REDIS_ADDR":                 &cfg.RedisAddr,
		"KAFKA_ARCHIVE_TOPIC":        &cfg.KafkaArchiveTopic,
		"ROUTING_BASE_URL":           &cfg.RoutingBaseURL,
		"ROUTING_API_KEY":            &cfg.RoutingAPIKey,
		"ROUTING_PROFILE":            &cfg.RoutingProfile,
		"ARCHIVE_RECONCILE_SCHEDULE": &cfg.ArchiveReconcileSchedule,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("KAFKA_BROKERS"); ok {
		cfg.KafkaBrokers = splitList(v)
	}

	floats := map[string]*float64{
		"PRICE_BASE_FARE": &cfg.PriceBaseFare,
		"PRICE_PER_KM":    &cfg.PricePerKm,
	}
	for key, dst := range floats {
		if v, ok := lookup(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return errs.NewValueIsInvalidErrorWithCause(key, err)
			}
			*dst = f
		}
	}

	ints := map[string]*int{
		"ROUTE_CACHE_TTL_SECONDS":        &cfg.RouteCacheTTLSeconds,
		"LOCATION_RATE_LIMIT_PER_MINUTE": &cfg.LocationRateLimitPerMinute,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errs.NewValueIsInvalidErrorWithCause(key, err)
			}
			*dst = n
		}
	}

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) Validate() error {
	var problems []error

	switch c.Storage {
	case StorageMemory, StorageDynamoDB:
	case StoragePostgres:
		if c.DBHost == "" {
			problems = append(problems, errs.NewValueIsRequiredError("DB_HOST"))
		}
		if c.DBName == "" {
			problems = append(problems, errs.NewValueIsRequiredError("DB_NAME"))
		}
	default:
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("STORAGE",
			fmt.Errorf("%q is not one of memory, postgres, dynamodb", c.Storage)))
	}

	if _, err := c.parseLogLevel(); err != nil {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("LOG_LEVEL", err))
	}
	if c.PriceBaseFare < 0 || c.PricePerKm < 0 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("price", min(c.PriceBaseFare, c.PricePerKm), 0, "+Inf"))
	}

	return errors.Join(problems...)
}

// DSN is the libpq connection string for the postgres store.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func (c Config) SlogLevel() slog.Level {
	level, err := c.parseLogLevel()
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func (c Config) parseLogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.LogLevel))
	return level, err
}
