package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// WarehouseConfig holds BigQuery warehouse configuration
type WarehouseConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	DatasetID       string `mapstructure:"dataset_id"`
	Location        string `mapstructure:"location"`
	CredentialsFile string `mapstructure:"credentials_file"`
	// ProtectContents guards warehouse tables against destructive changes.
	// Only disable in development environments.
	ProtectContents bool `mapstructure:"protect_contents"`
}

// DatabaseConfig holds the journal database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// CalendarConfig holds the date-dimension seeding range
type CalendarConfig struct {
	FromYear  int `mapstructure:"from_year"`
	ToYear    int `mapstructure:"to_year"`
	BatchSize int `mapstructure:"batch_size"`
}

// ProvisionerConfig holds configuration for the provisioner
type ProvisionerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Warehouse  WarehouseConfig `mapstructure:"warehouse"`
	Database   DatabaseConfig  `mapstructure:"database"`
}

// CalendarSeederConfig holds configuration for the calendar-seeder
type CalendarSeederConfig struct {
	BaseConfig `mapstructure:",squash"`
	Warehouse  WarehouseConfig `mapstructure:"warehouse"`
	Calendar   CalendarConfig  `mapstructure:"calendar"`
}

// LoadProvisionerConfig loads configuration for the provisioner
func LoadProvisionerConfig(configFile string, envPath string) (*ProvisionerConfig, error) {
	v := configureViper("provisioner", configFile, envPath)

	// Set defaults
	v.SetDefault("warehouse.dataset_id", "event_warehouse")
	v.SetDefault("warehouse.location", "US")
	v.SetDefault("warehouse.protect_contents", true)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config ProvisionerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Warehouse.ProjectID == "" {
		return nil, errors.New("warehouse.project_id is required")
	}

	return &config, nil
}

// LoadCalendarSeederConfig loads configuration for the calendar-seeder
func LoadCalendarSeederConfig(configFile string, envPath string) (*CalendarSeederConfig, error) {
	v := configureViper("calendar-seeder", configFile, envPath)

	// Set defaults
	v.SetDefault("warehouse.dataset_id", "event_warehouse")
	v.SetDefault("warehouse.location", "US")
	v.SetDefault("warehouse.protect_contents", true)
	v.SetDefault("calendar.from_year", 2020)
	v.SetDefault("calendar.to_year", 2030)
	v.SetDefault("calendar.batch_size", 500)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config CalendarSeederConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Warehouse.ProjectID == "" {
		return nil, errors.New("warehouse.project_id is required")
	}
	if config.Calendar.FromYear > config.Calendar.ToYear {
		return nil, fmt.Errorf("calendar.from_year %d is after calendar.to_year %d",
			config.Calendar.FromYear, config.Calendar.ToYear)
	}

	return &config, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/provisioner/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("EVENT_WAREHOUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Warehouse
		"warehouse.project_id",
		"warehouse.dataset_id",
		"warehouse.location",
		"warehouse.credentials_file",
		"warehouse.protect_contents",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Calendar
		"calendar.from_year",
		"calendar.to_year",
		"calendar.batch_size",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
