package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Simplici0/advance/internal/pricing"
)

// Config holds application configuration sourced from config.yaml, .env and
// environment variables, in increasing order of precedence.
type Config struct {
	Env           string      `mapstructure:"env"`
	DBPath        string      `mapstructure:"db_path"`
	Port          string      `mapstructure:"port"`
	MigrationsDir string      `mapstructure:"migrations_dir"`
	Redis         RedisConfig `mapstructure:"redis"`
	Log           LogConfig   `mapstructure:"log"`
	Fees          FeesConfig  `mapstructure:"fees"`
}

// RedisConfig configures the disclosure cache. An empty Addr selects the in-memory cache.
type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FeesConfig is the default product's fee schedule. Percentages are kept as
// strings so they reach decimal.Decimal without a float64 detour; 15.00 means 15%.
type FeesConfig struct {
	Name                     string `mapstructure:"name"`
	Currency                 string `mapstructure:"currency"`
	InitialPercentage        string `mapstructure:"initial_percentage"`
	DailyPercentage          string `mapstructure:"daily_percentage"`
	ExitPercentage           string `mapstructure:"exit_percentage"`
	MinimumTermMonths        int    `mapstructure:"minimum_term_months"`
	MaximumTermMonths        int    `mapstructure:"maximum_term_months"`
	RepresentativeTermMonths int    `mapstructure:"representative_term_months"`
}

// IsDev reports whether the process runs in development mode.
func (c Config) IsDev() bool {
	return c.Env == "" || c.Env == "development"
}

// Schedule parses and validates the configured fee schedule.
func (f FeesConfig) Schedule() (pricing.FeeSchedule, error) {
	initial, err := decimal.NewFromString(f.InitialPercentage)
	if err != nil {
		return pricing.FeeSchedule{}, eris.Wrapf(err, "config: fees.initial_percentage %q", f.InitialPercentage)
	}
	daily, err := decimal.NewFromString(f.DailyPercentage)
	if err != nil {
		return pricing.FeeSchedule{}, eris.Wrapf(err, "config: fees.daily_percentage %q", f.DailyPercentage)
	}
	exit, err := decimal.NewFromString(f.ExitPercentage)
	if err != nil {
		return pricing.FeeSchedule{}, eris.Wrapf(err, "config: fees.exit_percentage %q", f.ExitPercentage)
	}

	return pricing.NewFeeScheduleFromPercent(
		initial, daily, exit,
		f.MinimumTermMonths, f.MaximumTermMonths, f.RepresentativeTermMonths,
		f.Currency,
	)
}

// Load reads configuration and returns a populated Config.
func Load() (*Config, error) {
	// Best-effort: local development variables. Production injects real env.
	if err := loadDotEnv(".env"); err != nil {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("db_path", "./dev.db")
	v.SetDefault("port", "8080")
	v.SetDefault("migrations_dir", "migrations")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl_minutes", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("fees.name", "Standard Advancement")
	v.SetDefault("fees.currency", "EUR")
	v.SetDefault("fees.initial_percentage", "15.00")
	v.SetDefault("fees.daily_percentage", "0.07")
	v.SetDefault("fees.exit_percentage", "1.50")
	v.SetDefault("fees.minimum_term_months", 12)
	v.SetDefault("fees.maximum_term_months", 36)
	v.SetDefault("fees.representative_term_months", 36)
}

// loadDotEnv loads KEY=VALUE pairs from a dotenv file into the process
// environment. A missing file is not an error and existing variables win.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
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
