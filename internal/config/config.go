package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendS3 = "s3"
	BackendFS = "fs"
)

type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Server  ServerConfig  `mapstructure:"server"`
	Dataset DatasetConfig `mapstructure:"dataset"`
}

type StorageConfig struct {
	Backend    string `mapstructure:"backend"`
	Bucket     string `mapstructure:"bucket"`
	Region     string `mapstructure:"region"`
	Dir        string `mapstructure:"dir"`
	DatasetKey string `mapstructure:"dataset_key"`
	LogKey     string `mapstructure:"log_key"`
}

type LLMConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	MaxTokens  int64  `mapstructure:"max_tokens"`
	MaxRetries int    `mapstructure:"max_retries"`
	Language   string `mapstructure:"language"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatasetConfig struct {
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	SampleSize int           `mapstructure:"sample_size"`
}

func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Backend:    BackendFS,
			Dir:        ".",
			DatasetKey: "revenue.csv",
			LogKey:     "question_logs.csv",
		},
		LLM: LLMConfig{
			Model:      "claude-3-5-sonnet-latest",
			MaxTokens:  1000,
			MaxRetries: 2,
			Language:   "Georgian",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Dataset: DatasetConfig{
			CacheTTL:   10 * time.Minute,
			SampleSize: 5,
		},
	}
}

// Load reads configuration from an optional .env file, a config file
// and environment variables. Environment variables use the prefix
// "MAIKO" and the dot character in keys is replaced by an underscore,
// e.g. "storage.bucket" becomes "MAIKO_STORAGE_BUCKET". When path is
// empty a "maiko" config file is looked up in the working directory.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("maiko")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("MAIKO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendS3:
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for the s3 backend")
		}
	case BackendFS:
		if c.Storage.Dir == "" {
			return errors.New("storage.dir is required for the fs backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Storage.DatasetKey == "" {
		return errors.New("storage.dataset_key is required")
	}
	return nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string(nil), parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
