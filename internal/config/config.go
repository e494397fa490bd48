package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// Config struct is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Provider ProviderConfig `mapstructure:"provider"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// AuthConfig holds token verification settings. Token issuing is owned by
// the external auth subsystem; this service only verifies bearer tokens.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// ProviderConfig holds voice-call provider credentials and endpoints.
type ProviderConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	PublicKey   string        `mapstructure:"public_key"`
	PrivateKey  string        `mapstructure:"private_key"`
	AssistantID string        `mapstructure:"assistant_id"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// EngineConfig holds analysis engine credentials and endpoints.
type EngineConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PipelineConfig holds the orchestration timing knobs.
type PipelineConfig struct {
	PollInterval        time.Duration `mapstructure:"poll_interval"`
	PollCeiling         time.Duration `mapstructure:"poll_ceiling"`
	FarewellGrace       time.Duration `mapstructure:"farewell_grace"`
	MinTranscriptLength int           `mapstructure:"min_transcript_length"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")

	// Database defaults
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "visa-cracked")

	// Auth defaults
	v.SetDefault("auth.issuer", "visa-cracked")

	// Provider defaults
	v.SetDefault("provider.base_url", "https://api.vapi.ai")
	v.SetDefault("provider.timeout", "30s")

	// Engine defaults
	v.SetDefault("engine.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("engine.model", "gemini-2.5-flash-preview-05-20")
	v.SetDefault("engine.timeout", "90s")

	// Pipeline defaults
	v.SetDefault("pipeline.poll_interval", "5s")
	v.SetDefault("pipeline.poll_ceiling", "120s")
	v.SetDefault("pipeline.farewell_grace", "2s")
	v.SetDefault("pipeline.min_transcript_length", 20)
}

// Init initializes the configuration with Viper.
func Init(projectRoot string, log *zap.Logger) error {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("VISA") // e.g., VISA_PROVIDER_PRIVATE_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the initial configuration from the file.
	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal the config into our global Conf variable
	if err := v.Unmarshal(&Conf); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	// Set up a watch for configuration changes for hot-reloading
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		if err := v.Unmarshal(&Conf); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
		}
	})

	log.Info("Configuration loaded successfully")
	return nil
}
