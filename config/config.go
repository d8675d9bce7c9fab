package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Providers ProvidersConfig `yaml:"providers"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Booking   BookingConfig   `yaml:"booking"`
	Worker    WorkerConfig    `yaml:"worker"`
	Chaos     ChaosConfig     `yaml:"chaos"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

// ProvidersConfig describes both sides of the provider simulation: where the
// simulation service listens and where the booking service reaches it.
type ProvidersConfig struct {
	HTTPAddress    string `yaml:"http_address"`
	GRPCAddress    string `yaml:"grpc_address"`
	ClientAddress  string `yaml:"client_address"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	CallLogSize    int    `yaml:"call_log_size"`
}

func (p ProvidersConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	Migrate  bool   `yaml:"migrate"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	HoldTTLMinutes    int     `yaml:"hold_ttl_minutes"`
	EnforceHoldExpiry bool    `yaml:"enforce_hold_expiry"`
	VerifyPlan        bool    `yaml:"verify_plan"`
	PriceTolerance    float64 `yaml:"price_tolerance"`
	LockTTLSeconds    int     `yaml:"lock_ttl_seconds"`
	ListDefaultLimit  int     `yaml:"list_default_limit"`
	ListMaxLimit      int     `yaml:"list_max_limit"`
}

func (b BookingConfig) HoldTTL() time.Duration {
	return time.Duration(b.HoldTTLMinutes) * time.Minute
}

func (b BookingConfig) LockTTL() time.Duration {
	return time.Duration(b.LockTTLSeconds) * time.Second
}

type WorkerConfig struct {
	SeatSweepSeconds int `yaml:"seat_sweep_seconds"`
}

// ChaosConfig is the YAML shape of the fault injection table. Endpoints maps
// an endpoint name (routes, pricing, availability, risk, validation) to its
// ordered fault bands; an endpoint absent from the map keeps its defaults.
type ChaosConfig struct {
	Enabled   bool                    `yaml:"enabled"`
	Seed      int64                   `yaml:"seed"`
	Endpoints map[string][]BandConfig `yaml:"endpoints"`
}

type BandConfig struct {
	Fault        string  `yaml:"fault"`
	Probability  float64 `yaml:"probability"`
	DelaySeconds float64 `yaml:"delay_seconds"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.setDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":9090"
	}
	if c.Providers.HTTPAddress == "" {
		c.Providers.HTTPAddress = ":8765"
	}
	if c.Providers.GRPCAddress == "" {
		c.Providers.GRPCAddress = ":9765"
	}
	if c.Providers.TimeoutSeconds == 0 {
		c.Providers.TimeoutSeconds = 2
	}
	if c.Providers.CallLogSize == 0 {
		c.Providers.CallLogSize = 1000
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Booking.HoldTTLMinutes == 0 {
		c.Booking.HoldTTLMinutes = 5
	}
	if c.Booking.LockTTLSeconds == 0 {
		c.Booking.LockTTLSeconds = 10
	}
	if c.Booking.ListDefaultLimit == 0 {
		c.Booking.ListDefaultLimit = 50
	}
	if c.Booking.ListMaxLimit == 0 {
		c.Booking.ListMaxLimit = 200
	}
	if c.Worker.SeatSweepSeconds == 0 {
		c.Worker.SeatSweepSeconds = 30
	}
}

// applyEnv lets deployments flip chaos mode without editing the file. It runs
// once at startup; nothing reads the environment at call time.
func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("CHAOS_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CHAOS_ENABLED %q: %w", v, err)
		}
		c.Chaos.Enabled = enabled
	}
	if v, ok := os.LookupEnv("CHAOS_SEED"); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid CHAOS_SEED %q: %w", v, err)
		}
		c.Chaos.Seed = seed
	}
	return nil
}
