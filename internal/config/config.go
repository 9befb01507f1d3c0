package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	SportsAPI   SportsAPIConfig `mapstructure:"sports_api"`
	Telegram    TelegramConfig  `mapstructure:"telegram"`
	Analysis    AnalysisConfig  `mapstructure:"analysis"`
	Collector   CollectorConfig `mapstructure:"collector"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	DatabaseURL     string `mapstructure:"database_url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime string `mapstructure:"conn_max_idle_time"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SportsAPIConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key" json:"-" yaml:"-"`
	Competition string `mapstructure:"competition"`
	Timeout     int    `mapstructure:"timeout"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token" json:"-" yaml:"-"`
	ChatID   string `mapstructure:"chat_id"`
}

// AnalysisConfig carries the window sizes and statistical thresholds used by
// the correlation pipeline. Window sizes are in hours; the during-match
// window is centered on kickoff.
type AnalysisConfig struct {
	PreMatchWindowHours    float64 `mapstructure:"pre_match_window_hours"`
	DuringMatchWindowHours float64 `mapstructure:"during_match_window_hours"`
	PostMatchWindowHours   float64 `mapstructure:"post_match_window_hours"`
	SignificanceAlpha      float64 `mapstructure:"significance_alpha"`
	HighScoringGoals       int     `mapstructure:"high_scoring_goals"`
}

type CollectorConfig struct {
	MockMatchCount    int     `mapstructure:"mock_match_count"`
	MockOrdersPerDay  int     `mapstructure:"mock_orders_per_day"`
	MockPeriodDays    int     `mapstructure:"mock_period_days"`
	MatchDayBoost     float64 `mapstructure:"match_day_boost"`
	FallbackToMock    bool    `mapstructure:"fallback_to_mock"`
	CollectionTimeout int     `mapstructure:"collection_timeout"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Bind secret-bearing environment variables
	if err := viper.BindEnv("sports_api.api_key", "SPORTS_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind SPORTS_API_KEY environment variable: %w", err)
	}
	if err := viper.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind TELEGRAM_BOT_TOKEN environment variable: %w", err)
	}

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Normalize environment to lowercase for consistent comparison
	config.Environment = strings.ToLower(config.Environment)

	if err := config.Analysis.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects window sizes and thresholds the correlation pipeline
// cannot work with.
func (a AnalysisConfig) Validate() error {
	if a.PreMatchWindowHours <= 0 {
		return fmt.Errorf("pre_match_window_hours must be positive, got %v", a.PreMatchWindowHours)
	}
	if a.DuringMatchWindowHours <= 0 {
		return fmt.Errorf("during_match_window_hours must be positive, got %v", a.DuringMatchWindowHours)
	}
	if a.PostMatchWindowHours <= 0 {
		return fmt.Errorf("post_match_window_hours must be positive, got %v", a.PostMatchWindowHours)
	}
	if a.SignificanceAlpha <= 0 || a.SignificanceAlpha >= 1 {
		return fmt.Errorf("significance_alpha must be strictly between 0 and 1, got %v", a.SignificanceAlpha)
	}
	if a.HighScoringGoals < 1 {
		return fmt.Errorf("high_scoring_goals must be at least 1, got %d", a.HighScoringGoals)
	}
	return nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Set database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "matchday")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "300s")
	viper.SetDefault("database.conn_max_idle_time", "60s")

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Sports results API
	viper.SetDefault("sports_api.base_url", "https://api.football-data.org/v4")
	viper.SetDefault("sports_api.api_key", "")
	viper.SetDefault("sports_api.competition", "PL")
	viper.SetDefault("sports_api.timeout", 30)

	// Telegram
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.chat_id", "")

	// Analysis
	viper.SetDefault("analysis.pre_match_window_hours", 2.0)
	viper.SetDefault("analysis.during_match_window_hours", 2.0)
	viper.SetDefault("analysis.post_match_window_hours", 2.0)
	viper.SetDefault("analysis.significance_alpha", 0.05)
	viper.SetDefault("analysis.high_scoring_goals", 3)

	// Collector
	viper.SetDefault("collector.mock_match_count", 20)
	viper.SetDefault("collector.mock_orders_per_day", 150)
	viper.SetDefault("collector.mock_period_days", 30)
	viper.SetDefault("collector.match_day_boost", 1.8)
	viper.SetDefault("collector.fallback_to_mock", true)
	viper.SetDefault("collector.collection_timeout", 60)
}
