package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	// Database Configuration
	DatabaseDriver  string `mapstructure:"DATABASE_DRIVER" validate:"oneof=postgres sqlite"`
	DatabaseDSN     string `mapstructure:"DATABASE_DSN" validate:"required"`
	DatabaseRetries int    `mapstructure:"DATABASE_RETRIES" validate:"min=1"`

	// Inputs
	ManifestPath string `mapstructure:"MANIFEST_PATH" validate:"required"`
	VideoDir     string `mapstructure:"VIDEO_DIR" validate:"required"`
	ImageDir     string `mapstructure:"IMAGE_DIR" validate:"required"`
	ScratchDir   string `mapstructure:"SCRATCH_DIR" validate:"required"`

	// Object store (MinIO / S3)
	MinioEndpoint    string `mapstructure:"MINIO_ENDPOINT" validate:"required"`
	MinioPort        int    `mapstructure:"MINIO_PORT" validate:"min=1,max=65535"`
	MinioUseSSL      bool   `mapstructure:"MINIO_USE_SSL"`
	MinioRegion      string `mapstructure:"MINIO_REGION"`
	MinioAccessKey   string `mapstructure:"MINIO_ACCESS_KEY" validate:"required"`
	MinioSecretKey   string `mapstructure:"MINIO_SECRET_KEY" validate:"required"`
	MinioBucketHLS   string `mapstructure:"MINIO_BUCKET_HLS" validate:"required"`
	MinioBucketThumb string `mapstructure:"MINIO_BUCKET_THUMB" validate:"required"`

	// Timeouts
	TranscodeTimeout time.Duration `mapstructure:"TRANSCODE_TIMEOUT"`
	NetworkTimeout   time.Duration `mapstructure:"NETWORK_TIMEOUT"`

	// Observability
	LogLevel    string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat   string `mapstructure:"LOG_FORMAT" validate:"oneof=auto text json"`
	MetricsAddr string `mapstructure:"METRICS_ADDR"`
}

// MinioURL returns the object store base URL. An endpoint that already
// carries a scheme is used as is.
func (c Config) MinioURL() string {
	if strings.Contains(c.MinioEndpoint, "://") {
		return c.MinioEndpoint
	}
	scheme := "http"
	if c.MinioUseSSL {
		scheme = "https"
	}
	host := c.MinioEndpoint
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, strconv.Itoa(c.MinioPort))
	}
	return scheme + "://" + host
}

// LogValue keeps credentials out of log output.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("database_driver", c.DatabaseDriver),
		slog.Int("database_retries", c.DatabaseRetries),
		slog.String("manifest_path", c.ManifestPath),
		slog.String("video_dir", c.VideoDir),
		slog.String("image_dir", c.ImageDir),
		slog.String("scratch_dir", c.ScratchDir),
		slog.String("minio_url", c.MinioURL()),
		slog.String("minio_bucket_hls", c.MinioBucketHLS),
		slog.String("minio_bucket_thumb", c.MinioBucketThumb),
		slog.Duration("transcode_timeout", c.TranscodeTimeout),
		slog.Duration("network_timeout", c.NetworkTimeout),
		slog.String("log_level", c.LogLevel),
		slog.String("metrics_addr", c.MetricsAddr),
	)
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag != "" {
			viper.BindEnv(tag)
		}

		// Handle nested structs
		if field.Type.Kind() == reflect.Struct && tag == "" {
			nestedTyp := fieldVal.Type()
			for j := 0; j < fieldVal.NumField(); j++ {
				nestedField := nestedTyp.Field(j)
				nestedTag := nestedField.Tag.Get("mapstructure")
				if nestedTag != "" {
					viper.BindEnv(nestedTag)
				}
			}
		}
	}
	slog.Debug("Environment variables bound", "fields", typ.NumField())
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
		slog.Debug("Loaded env file", "path", p)
	}
	return nil
}

// LoadConfig loads and validates the full ingest configuration.
func LoadConfig(ctx context.Context) (*Config, error) {
	return load(ctx)
}

// LoadDatabaseConfig loads the configuration but validates only the database
// fields, for commands that never touch the object store or the inputs.
func LoadDatabaseConfig(ctx context.Context) (*Config, error) {
	return load(ctx, "DatabaseDriver", "DatabaseDSN", "DatabaseRetries")
}

func load(ctx context.Context, only ...string) (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("DATABASE_DRIVER", DriverPostgres)
	viper.SetDefault("DATABASE_RETRIES", 10)
	viper.SetDefault("MANIFEST_PATH", "video_data/video_metadata.xlsx")
	viper.SetDefault("VIDEO_DIR", "video_data/video")
	viper.SetDefault("IMAGE_DIR", "video_data/image")
	viper.SetDefault("SCRATCH_DIR", "temp_hls")
	viper.SetDefault("MINIO_PORT", 9000)
	viper.SetDefault("MINIO_USE_SSL", false)
	viper.SetDefault("MINIO_REGION", "us-east-1")
	viper.SetDefault("TRANSCODE_TIMEOUT", 2*time.Hour)
	viper.SetDefault("NETWORK_TIMEOUT", 2*time.Minute)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "auto")

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	validate := validator.New()
	if len(only) > 0 {
		if err := validate.StructPartial(cfg, only...); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
		slog.InfoContext(ctx, "Loaded configuration", "config", cfg)
		return &cfg, nil
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if cfg.TranscodeTimeout <= 0 || cfg.NetworkTimeout <= 0 {
		return nil, fmt.Errorf("validate config: timeouts must be positive")
	}

	slog.InfoContext(ctx, "Loaded configuration", "config", cfg)

	return &cfg, nil
}
