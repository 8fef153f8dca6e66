package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address     string   `yaml:"address"`
	SwaggerDir  string   `yaml:"swagger_dir"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type StorageConfig struct {
	Driver        string `yaml:"driver"`
	RunMigrations bool   `yaml:"run_migrations"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig is optional; an empty Addr disables the flight cache and the
// per-flight lock.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// KafkaConfig is optional; no brokers means no events are published.
type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	LedgerTopic        string   `yaml:"ledger_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type LedgerConfig struct {
	MinSeats             int `yaml:"min_seats"`
	MaxSeats             int `yaml:"max_seats"`
	MaxTicketsPerBooking int `yaml:"max_tickets_per_booking"`
	FlightsCacheTTL      int `yaml:"flights_cache_ttl_seconds"`
	FlightLockTTL        int `yaml:"flight_lock_ttl_seconds"`
}

type WorkerConfig struct {
	AuditSweepMinutes int `yaml:"audit_sweep_minutes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML and fills every unset field with its default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		HTTP:    HTTPConfig{Address: ":8080"},
		GRPC:    GRPCConfig{Address: ":9090"},
		Storage: StorageConfig{Driver: StorageMemory},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Kafka: KafkaConfig{
			LedgerTopic: "ledger.events",
			GroupID:     "airledger-worker",
		},
		Ledger: LedgerConfig{
			MinSeats:             75,
			MaxSeats:             500,
			MaxTicketsPerBooking: 10,
			FlightsCacheTTL:      30,
			FlightLockTTL:        5,
		},
		Worker: WorkerConfig{AuditSweepMinutes: 10},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Ledger.MinSeats <= 0 || c.Ledger.MinSeats > c.Ledger.MaxSeats {
		return fmt.Errorf("invalid seat bounds [%d, %d]", c.Ledger.MinSeats, c.Ledger.MaxSeats)
	}
	if c.Ledger.MaxTicketsPerBooking <= 0 {
		return fmt.Errorf("max_tickets_per_booking must be positive")
	}
	if c.Worker.AuditSweepMinutes <= 0 {
		return fmt.Errorf("audit_sweep_minutes must be positive")
	}
	return nil
}
