package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Azure  AzureConfig  `yaml:"azure" mapstructure:"azure"`
	Run    RunConfig    `yaml:"run" mapstructure:"run"`
	Source SourceConfig `yaml:"source" mapstructure:"source"`
	Sink   SinkConfig   `yaml:"sink" mapstructure:"sink"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// AzureConfig holds the Azure OpenAI deployment settings. The deployment
// is the model-router deployment; its routing profile (Balanced, Cost,
// Quality) is configured on the remote deployment, not per request.
type AzureConfig struct {
	Endpoint   string `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey     string `yaml:"api_key" mapstructure:"api_key"`
	Deployment string `yaml:"deployment" mapstructure:"deployment"`
	APIVersion string `yaml:"api_version" mapstructure:"api_version"`
}

// RunConfig configures the batch run.
type RunConfig struct {
	Profile     string  `yaml:"profile" mapstructure:"profile"`
	Target      int     `yaml:"target" mapstructure:"target"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RPS         float64 `yaml:"rps" mapstructure:"rps"`
}

// SourceConfig configures the prompt dataset source.
type SourceConfig struct {
	Dataset   string `yaml:"dataset" mapstructure:"dataset"`
	Config    string `yaml:"config" mapstructure:"config"`
	Split     string `yaml:"split" mapstructure:"split"`
	CachePath string `yaml:"cache_path" mapstructure:"cache_path"`
	PageSize  int    `yaml:"page_size" mapstructure:"page_size"`
}

// SinkConfig configures the result store backend.
type SinkConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Dir         string `yaml:"dir" mapstructure:"dir"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the read-only status server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ROUTERBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credential keys get empty defaults so env-only values
	// survive Unmarshal.
	v.SetDefault("azure.endpoint", "")
	v.SetDefault("azure.api_key", "")
	v.SetDefault("azure.deployment", "")
	v.SetDefault("azure.api_version", "2024-12-01-preview")
	v.SetDefault("run.profile", "Balanced")
	v.SetDefault("run.target", 1000)
	v.SetDefault("run.timeout_secs", 60)
	v.SetDefault("run.rps", 0)
	v.SetDefault("source.dataset", "data-is-better-together/10k_prompts_ranked")
	v.SetDefault("source.config", "default")
	v.SetDefault("source.split", "train")
	v.SetDefault("source.cache_path", "prompts_cache.jsonl")
	v.SetDefault("source.page_size", 100)
	v.SetDefault("sink.driver", "jsonl")
	v.SetDefault("sink.dir", ".")
	v.SetDefault("sink.database_url", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that every setting the batch run needs is present.
// Missing values are a fatal startup error, reported all at once.
func (c *Config) Validate() error {
	var missing []string
	if c.Azure.Endpoint == "" {
		missing = append(missing, "azure.endpoint")
	}
	if c.Azure.APIKey == "" {
		missing = append(missing, "azure.api_key")
	}
	if c.Azure.Deployment == "" {
		missing = append(missing, "azure.deployment")
	}
	if c.Azure.APIVersion == "" {
		missing = append(missing, "azure.api_version")
	}
	if len(missing) > 0 {
		return eris.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	if c.Run.Target <= 0 {
		return eris.New("config: run.target must be positive")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
