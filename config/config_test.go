package config

import (
	// Go Internal Packages
	"os"
	"path/filepath"
	"testing"
	"time"

	// Local Packages
	errors "bankfeed/errors"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	_, conf, err := Load("")
	require.NoError(t, err)
	require.NoError(t, conf.Validate())

	assert.Equal(t, "stomp", conf.Push.Driver)
	assert.Equal(t, 4*time.Second, conf.Push.Heartbeat)
	assert.Equal(t, 50, conf.Feeds.TransactionLimit)
	assert.Equal(t, 0, conf.Feeds.NotificationLimit)
	assert.Equal(t, 15*time.Minute, conf.QR.TTL)
	assert.Equal(t, "/topic/payments/received", conf.Push.Topics.PaymentsReceived)
}

func TestFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	body := []byte("push:\n  driver: kafka\nfeeds:\n  notification_limit: 200\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	_, conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "kafka", conf.Push.Driver)
	assert.Equal(t, 200, conf.Feeds.NotificationLimit)
	assert.Equal(t, 50, conf.Feeds.TransactionLimit)
}

func TestMissingFileFallsBackToDefaults(t *testing.T) {
	_, conf, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, "bank-console", conf.Application)
}

func TestLoadSecrets(t *testing.T) {
	env := map[string]string{
		"BANK_API_BASE_URL": "https://bank.example",
		"BANK_API_TOKEN":    "secret",
		"KAFKA_BROKERS":     "k1:9092,k2:9092",
		"IS_PROD_MODE":      "true",
	}
	conf := LoadSecrets(Config{}, func(key string) string { return env[key] })

	assert.Equal(t, "https://bank.example", conf.API.BaseURL)
	assert.Equal(t, "secret", conf.API.Token)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, conf.Kafka.Brokers)
	assert.True(t, conf.IsProdMode)
}

func TestValidate(t *testing.T) {
	_, base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"no log output", func(c *Config) { c.Logger.Output = "" }, "logger.output"},
		{"unknown driver", func(c *Config) { c.Push.Driver = "mqtt" }, "push.driver"},
		{"stomp without url", func(c *Config) { c.Push.URL = "" }, "push.url"},
		{"kafka without brokers", func(c *Config) { c.Push.Driver = "kafka"; c.Kafka.Brokers = nil }, "kafka.brokers"},
		{"zero transaction limit", func(c *Config) { c.Feeds.TransactionLimit = 0 }, "feeds.transaction_limit"},
		{"negative notification limit", func(c *Config) { c.Feeds.NotificationLimit = -1 }, "feeds.notification_limit"},
		{"mongo enabled without uri", func(c *Config) { c.Mongo.Enabled = true; c.Mongo.URI = "" }, "mongo.uri"},
		{"reconnect without delay", func(c *Config) { c.Push.Reconnect.Enabled = true; c.Push.Reconnect.Delay = 0 }, "push.reconnect.delay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := base
			conf.Kafka.Brokers = append([]string(nil), base.Kafka.Brokers...)
			tt.mutate(&conf)

			err := conf.Validate()
			require.Error(t, err)
			assert.Equal(t, errors.Invalid, errors.KindOf(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
