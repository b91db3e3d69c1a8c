package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment   string              `mapstructure:"environment"`
	Log           LogConfig           `mapstructure:"log"`
	Server        ServerConfig        `mapstructure:"server"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
	// Workers bounds concurrent analyses of a spreadsheet import.
	Workers int `mapstructure:"workers"`
}

// LLMConfig configures the text-analysis provider. Provider is one of
// openai, gemini or mock.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int64         `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type TranscriptionConfig struct {
	Mock           bool          `mapstructure:"mock"`
	URL            string        `mapstructure:"url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxElapsedTime time.Duration `mapstructure:"max_elapsed_time"`
}

type StorageConfig struct {
	DatabaseURL   string `mapstructure:"database_url"`
	UploadDir     string `mapstructure:"upload_dir"`
	RetentionDays int    `mapstructure:"retention_days"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type SchedulerConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	RetentionSpec string `mapstructure:"retention_spec"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "local")
	v.SetDefault("log.level", "info")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 6*time.Minute)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.max_upload_mb", 25)
	v.SetDefault("server.workers", 4)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-3.5-turbo")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("transcription.mock", false)
	v.SetDefault("transcription.url", "https://api.openai.com/v1")
	v.SetDefault("transcription.api_key", "")
	v.SetDefault("transcription.model", "whisper-1")
	v.SetDefault("transcription.timeout", 120*time.Second)
	v.SetDefault("transcription.max_elapsed_time", 30*time.Second)

	v.SetDefault("storage.database_url", "./call_auditor.db")
	v.SetDefault("storage.upload_dir", "./uploads")
	v.SetDefault("storage.retention_days", 30)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "call-analyses")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.retention_spec", "@hourly")
}

// Load reads .env, an optional YAML file and the environment, in increasing
// priority. An empty path looks for ./config.yaml and tolerates its absence.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // loads .env when present

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// names used by the original deployment
	_ = v.BindEnv("llm.api_key", "LLM_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("transcription.api_key", "TRANSCRIPTION_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("storage.database_url", "STORAGE_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("transcription.mock", "TRANSCRIPTION_MOCK", "USE_MOCK_TRANSCRIBE")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if v.GetBool("use_mock_llm") {
		cfg.LLM.Provider = "mock"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "openai", "gemini", "mock":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature %.2f out of range [0,2]", c.LLM.Temperature)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.Workers < 0 {
		return fmt.Errorf("server workers must not be negative")
	}
	if budget := c.UploadBudget(); c.Server.WriteTimeout > 0 && c.Server.WriteTimeout < budget {
		return fmt.Errorf("server write timeout %s is shorter than the upload budget %s", c.Server.WriteTimeout, budget)
	}
	if c.Storage.RetentionDays < 0 {
		return fmt.Errorf("retention days must not be negative")
	}
	return nil
}

// UploadBudget is the longest an upload request can spend before it answers:
// the last transcription attempt may start at max_elapsed_time and run for the
// full transcription timeout, followed by one provider call.
func (c *Config) UploadBudget() time.Duration {
	budget := c.LLM.Timeout
	if !c.Transcription.Mock {
		budget += c.Transcription.MaxElapsedTime + c.Transcription.Timeout
	}
	return budget
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
