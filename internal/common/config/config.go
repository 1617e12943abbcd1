// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Inference InferenceConfig         `mapstructure:"inference"`
	Speech    SpeechConfig            `mapstructure:"speech"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Cache     CacheConfig             `mapstructure:"cache"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Logging   LoggingConfig           `mapstructure:"logging"`
	Metrics   MetricsConfig           `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// InferenceConfig points at the server hosting the intent classifier and the
// NER model.
type InferenceConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	ClassifierModel string `mapstructure:"classifier_model"`
	RecognizerModel string `mapstructure:"recognizer_model"`
	APIToken        string `mapstructure:"api_token"`
	Timeout         int    `mapstructure:"timeout"` // milliseconds
	MaxRetries      int    `mapstructure:"max_retries"`

	IntentThreshold float64 `mapstructure:"intent_threshold"`
	EntityThreshold float64 `mapstructure:"entity_threshold"`

	// Model output label -> intent / entity label. Empty means the built-in
	// tables.
	IntentLabels map[string]string `mapstructure:"intent_labels"`
	EntityLabels map[string]string `mapstructure:"entity_labels"`
}

// SpeechConfig covers spoken questions: AssemblyAI transcription in and an
// external text-to-speech command out.
type SpeechConfig struct {
	APIKey       string   `mapstructure:"api_key"`
	BaseURL      string   `mapstructure:"base_url"` // empty means the AssemblyAI default
	Timeout      int      `mapstructure:"timeout"`  // milliseconds
	SpeakCommand string   `mapstructure:"speak_command"`
	SpeakArgs    []string `mapstructure:"speak_args"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig controls the pipeline result cache.
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	TTL     int  `mapstructure:"ttl"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the health/metrics listener used in worker mode.
type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
