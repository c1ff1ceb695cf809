package internal

import (
	"fmt"
	"gatekeeper/domain"
	"gatekeeper/errors"
	"gatekeeper/repositories"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	TelegramToken       string        `env:"TELEGRAM_TOKEN,required=true" validate:"required"`
	AdminUsername       string        `env:"ADMIN_USERNAME"`
	AdminChatID         int64         `env:"ADMIN_CHAT_ID"`
	VerificationTimeout time.Duration `env:"VERIFICATION_TIMEOUT,default=10m" validate:"gt=0"`
	PolicyDir           string        `env:"POLICY_DIR"`
	ModerationFoldLeet  bool          `env:"MODERATION_FOLD_LEET,default=false"`

	StorageDriver  string `env:"STORAGE_DRIVER,default=badger" validate:"oneof=badger sqlite postgres"`
	BadgerFilepath string `env:"BADGER_FILEPATH,default=./data/badger" validate:"required_if=StorageDriver badger"`
	DatabaseDSN    string `env:"DATABASE_DSN" validate:"required_unless=StorageDriver badger"`

	NumberOfWorkers  int           `env:"NUMBER_OF_WORKERS,default=4" validate:"gte=1"`
	BufferSize       int           `env:"BUFFER_SIZE,default=256" validate:"gte=0"`
	NotifyBufferSize int           `env:"NOTIFY_BUFFER_SIZE,default=100" validate:"gte=1"`
	NotifyTimeout    time.Duration `env:"NOTIFY_TIMEOUT,default=10s" validate:"gt=0"`
	HandlerTimeout   time.Duration `env:"HANDLER_TIMEOUT,default=30s" validate:"gt=0"`
	RestartInterval  time.Duration `env:"RESTART_INTERVAL,default=1s" validate:"gt=0"`
	PollTimeout      time.Duration `env:"POLL_TIMEOUT,default=10s" validate:"gt=0"`
	MetricInterval   time.Duration `env:"METRIC_INTERVAL,default=15s" validate:"gt=0"`
	DebugAddr        string        `env:"DEBUG_ADDR"`
	LogLevel         string        `env:"LOG_LEVEL,default=INFO"`
}

// LoadConfig reads the environment; a .env file must be loaded beforehand by the caller.
func LoadConfig() (Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	return config, config.Validate()
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrValidationFailed, err)
	}
	return nil
}

// AdminDestination prefers the numeric chat over the handle.
func (c Config) AdminDestination() domain.AdminDestination {
	return domain.AdminDestination{
		ChatID:   domain.ChatID(c.AdminChatID),
		Username: strings.TrimPrefix(strings.TrimSpace(c.AdminUsername), "@"),
	}
}

// Storage returns the driver and where it stores its data.
func (c Config) Storage() (repositories.Driver, string) {
	driver := repositories.Driver(c.StorageDriver)
	if driver == repositories.DriverBadger {
		return driver, c.BadgerFilepath
	}
	return driver, c.DatabaseDSN
}
