package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/projectline/projectline/internal/types"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Auth       AuthConfig       `validate:"required"`
	Pipedrive  PipedriveConfig
	Xero       XeroConfig
	Sentry     SentryConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// AuthConfig controls OAuth token refresh behaviour
type AuthConfig struct {
	// RefreshMinInterval is the minimum gap between the starts of two
	// successive refresh attempts for the same tenant/service key
	RefreshMinInterval time.Duration `mapstructure:"refresh_min_interval"`
	// RefreshExpiryLeeway refreshes tokens this long before they expire
	RefreshExpiryLeeway time.Duration `mapstructure:"refresh_expiry_leeway"`
}

// PipedriveConfig holds CRM OAuth app credentials and field mappings
type PipedriveConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	// ProjectNumberFieldKey is the custom deal field the project number is
	// written back to
	ProjectNumberFieldKey string `mapstructure:"project_number_field_key"`
	// DepartmentFieldKey is the custom deal field carrying the 2-letter
	// department code
	DepartmentFieldKey string `mapstructure:"department_field_key"`
	// VesselFieldKey is the custom deal field carrying the vessel name
	VesselFieldKey string `mapstructure:"vessel_field_key"`
}

// XeroConfig holds accounting OAuth app credentials
type XeroConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

func NewConfig() (*Configuration, error) {
	// Load .env if present; real env vars still win
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/projectline")

	v.SetEnvPrefix("PROJECTLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.ModeLocal))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("auth.refresh_min_interval", 5*time.Second)
	v.SetDefault("auth.refresh_expiry_leeway", 60*time.Second)
	v.SetDefault("pipedrive.project_number_field_key", "project_number")
	v.SetDefault("pipedrive.department_field_key", "department")
	v.SetDefault("pipedrive.vessel_field_key", "vessel")
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or tests without a config file
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelInfo},
		Auth: AuthConfig{
			RefreshMinInterval:  5 * time.Second,
			RefreshExpiryLeeway: 60 * time.Second,
		},
		Pipedrive: PipedriveConfig{
			ProjectNumberFieldKey: "project_number",
			DepartmentFieldKey:    "department",
			VesselFieldKey:        "vessel",
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
