package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Renderer RendererConfig `mapstructure:"renderer"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	UploadsDir string `mapstructure:"uploads_dir"`
	TempDir    string `mapstructure:"temp_dir"`
	// Catalog 数据集目录实现: memory | sqlite
	Catalog    string `mapstructure:"catalog"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type RendererConfig struct {
	Primary        BackendConfig `mapstructure:"primary"`
	Fallback       BackendConfig `mapstructure:"fallback"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxOutputBytes int           `mapstructure:"max_output_bytes"`
	UnavailableTTL time.Duration `mapstructure:"unavailable_ttl"`
}

// BackendConfig describes one rendering backend. Kind is "command" for an
// external process or "native" for the in-process renderer.
type BackendConfig struct {
	Name      string   `mapstructure:"name"`
	Kind      string   `mapstructure:"kind"`
	Command   string   `mapstructure:"command"`
	Args      []string `mapstructure:"args"`
	Script    string   `mapstructure:"script"`
	ParamMode string   `mapstructure:"param_mode"`
}

const (
	BackendCommand = "command"
	BackendNative  = "native"

	ParamModeArg  = "arg"
	ParamModeFile = "file"
)

var cfg *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.max_upload_bytes", 50<<20)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept"})
	v.SetDefault("cors.exposed_headers", []string{"X-Request-ID"})
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("storage.uploads_dir", "uploads")
	v.SetDefault("storage.temp_dir", "temp")
	v.SetDefault("storage.catalog", "memory")
	v.SetDefault("storage.sqlite_path", "data/catalog.db")

	v.SetDefault("renderer.primary.name", "r")
	v.SetDefault("renderer.primary.kind", BackendCommand)
	v.SetDefault("renderer.primary.command", "Rscript")
	v.SetDefault("renderer.primary.script", "r_scripts/chart_generator.R")
	v.SetDefault("renderer.primary.param_mode", ParamModeArg)
	v.SetDefault("renderer.fallback.name", "python")
	v.SetDefault("renderer.fallback.kind", BackendCommand)
	v.SetDefault("renderer.fallback.command", "python")
	v.SetDefault("renderer.fallback.script", "python_scripts/chart_generator.py")
	v.SetDefault("renderer.fallback.param_mode", ParamModeFile)
	v.SetDefault("renderer.timeout", "60s")
	v.SetDefault("renderer.max_output_bytes", 10*1024*1024)
	v.SetDefault("renderer.unavailable_ttl", "5m")
}

// Load reads configPath (optional; defaults apply when it does not exist),
// then environment variables prefixed with CHARTKIT_. A .env file in the
// working directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	// .env 文件可选
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CHARTKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cfg = c
	return c, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("server.port must be positive")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("server.max_upload_bytes must be positive")
	}
	if c.Renderer.MaxOutputBytes <= 0 {
		return errors.New("renderer.max_output_bytes must be positive")
	}
	if c.Storage.UploadsDir == "" || c.Storage.TempDir == "" {
		return errors.New("storage.uploads_dir and storage.temp_dir are required")
	}
	switch c.Storage.Catalog {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown storage.catalog %q", c.Storage.Catalog)
	}
	for name, b := range map[string]BackendConfig{"primary": c.Renderer.Primary, "fallback": c.Renderer.Fallback} {
		if err := b.validate(); err != nil {
			return fmt.Errorf("renderer.%s: %w", name, err)
		}
	}
	return nil
}

func (b BackendConfig) validate() error {
	switch b.Kind {
	case BackendNative:
		return nil
	case BackendCommand:
		if b.Command == "" {
			return errors.New("command is required")
		}
		switch b.ParamMode {
		case ParamModeArg, ParamModeFile:
			return nil
		default:
			return fmt.Errorf("unknown param_mode %q", b.ParamMode)
		}
	default:
		return fmt.Errorf("unknown kind %q", b.Kind)
	}
}

func Get() *Config {
	return cfg
}
