package internal

import (
	"gatekeeper/domain"
	"gatekeeper/errors"
	"gatekeeper/repositories"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("ADMIN_USERNAME", "@Boss")

	config, err := LoadConfig()

	req.NoError(err)
	req.Equal(10*time.Minute, config.VerificationTimeout)
	req.Equal("badger", config.StorageDriver)
	req.Equal(4, config.NumberOfWorkers)
	req.False(config.ModerationFoldLeet)
	req.Equal(domain.AdminDestination{Username: "Boss"}, config.AdminDestination())
	driver, location := config.Storage()
	req.Equal(repositories.DriverBadger, driver)
	req.Equal("./data/badger", location)
}

func TestLoadConfig_Overrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("ADMIN_CHAT_ID", "5551234")
	t.Setenv("VERIFICATION_TIMEOUT", "600s")
	t.Setenv("MODERATION_FOLD_LEET", "true")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", "file:gatekeeper.db")

	config, err := LoadConfig()

	req.NoError(err)
	req.Equal(600*time.Second, config.VerificationTimeout)
	req.True(config.ModerationFoldLeet)
	req.Equal(domain.ChatID(5551234), config.AdminDestination().ChatID)
	driver, location := config.Storage()
	req.Equal(repositories.DriverSQLite, driver)
	req.Equal("file:gatekeeper.db", location)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		TelegramToken:       "123:abc",
		VerificationTimeout: time.Minute,
		StorageDriver:       "badger",
		BadgerFilepath:      "/tmp/badger",
		NumberOfWorkers:     1,
		NotifyBufferSize:    1,
		NotifyTimeout:       time.Second,
		HandlerTimeout:      time.Second,
		RestartInterval:     time.Second,
		PollTimeout:         time.Second,
		MetricInterval:      time.Second,
	}
	tests := []struct {
		description string
		modify      func(c *Config)
		wantErr     bool
	}{
		{"Should accept a complete config", func(c *Config) {}, false},
		{"Should reject an unknown driver", func(c *Config) { c.StorageDriver = "mongo" }, true},
		{"Should require a DSN for postgres", func(c *Config) { c.StorageDriver = "postgres" }, true},
		{"Should accept postgres with a DSN", func(c *Config) {
			c.StorageDriver = "postgres"
			c.DatabaseDSN = "postgres://localhost/gatekeeper"
		}, false},
		{"Should reject a zero timeout", func(c *Config) { c.VerificationTimeout = 0 }, true},
		{"Should reject zero workers", func(c *Config) { c.NumberOfWorkers = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			config := valid
			tt.modify(&config)
			err := config.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, errors.ErrValidationFailed)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
