package meta

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings shared by the command-line modes.
type Config struct {
	Addr          string  // HTTP listen address
	AdminUser     string  // Basic auth user for /admin routes
	AdminPassword string  // Basic auth password for /admin routes
	Epsilon       float64 // Exploration rate for served games
	CompatProbe   bool    // Migrate non-canonical entries on read miss
	TablePath     string  // Export document loaded on start and saved on exit
	LogLevel      string
	Workers       int // Parallel self-play games
}

func DefaultConfig() Config {
	return Config{
		Addr:          ":8080",
		AdminUser:     "admin",
		AdminPassword: "admin",
		Epsilon:       Epsilon,
		LogLevel:      "info",
		Workers:       1,
	}
}

// LoadConfig reads a .env file from the working directory when present, then
// overrides the defaults with TICTACTOE_* environment variables.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	return configFromEnv(os.Getenv)
}

func configFromEnv(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()

	if v := getenv("TICTACTOE_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := getenv("TICTACTOE_ADMIN_USER"); v != "" {
		cfg.AdminUser = v
	}
	if v := getenv("TICTACTOE_ADMIN_PASSWORD"); v != "" {
		cfg.AdminPassword = v
	}
	if v := getenv("TICTACTOE_TABLE_PATH"); v != "" {
		cfg.TablePath = v
	}
	if v := getenv("TICTACTOE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("TICTACTOE_EPSILON"); v != "" {
		epsilon, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("failed to parse TICTACTOE_EPSILON=%q: %w", v, err)
		}
		cfg.Epsilon = epsilon
	}
	if v := getenv("TICTACTOE_COMPAT_PROBE"); v != "" {
		probe, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("failed to parse TICTACTOE_COMPAT_PROBE=%q: %w", v, err)
		}
		cfg.CompatProbe = probe
	}
	if v := getenv("TICTACTOE_WORKERS"); v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("failed to parse TICTACTOE_WORKERS=%q: %w", v, err)
		}
		cfg.Workers = workers
	}

	return cfg, cfg.Validate()
}

// Validate reports settings that would make a component panic at construction.
func (c Config) Validate() error {
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("epsilon must be within [0, 1], got %v", c.Epsilon)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}
