package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Token   string `env:"TELEGRAM_BOT_TOKEN,required,notEmpty"`
	ChatID  int64  `env:"TELEGRAM_CHAT_ID,required"`
	TopicID int    `env:"TELEGRAM_TOPIC_ID"`

	CheckIntervalSeconds int           `env:"CHECK_INTERVAL"         envDefault:"3600"`
	FeedsFile            string        `env:"FEEDS_FILE"             envDefault:"data/feeds.txt"`
	HistoryFile          string        `env:"HISTORY_FILE"           envDefault:"data/sent_items.json"`
	HistoryDriver        string        `env:"HISTORY_DRIVER"         envDefault:"json"`
	MaxHistoryItems      int           `env:"MAX_HISTORY_ITEMS"      envDefault:"200"`
	IncludeDescription   bool          `env:"INCLUDE_DESCRIPTION"    envDefault:"false"`
	MaxDescriptionLength int           `env:"MAX_DESCRIPTION_LENGTH" envDefault:"800"`
	DisableNotification  bool          `env:"DISABLE_NOTIFICATION"   envDefault:"false"`
	DeliveryDelay        time.Duration `env:"DELIVERY_DELAY"         envDefault:"2s"`
	FetchTimeout         time.Duration `env:"FETCH_TIMEOUT"          envDefault:"20s"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.MaxHistoryItems < 1 {
		return Config{}, fmt.Errorf("MAX_HISTORY_ITEMS must be positive, got %d", cfg.MaxHistoryItems)
	}

	return cfg, nil
}

// CheckInterval returns the poll interval, which is also the implicit
// retry interval for failed deliveries.
func (c Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}
