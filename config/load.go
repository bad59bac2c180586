package config

import (
	// Go Internal Packages
	"fmt"
	"os"
	"strings"

	// External Packages
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
)

// Load loads the default configuration and overrides it with the file at path.
// A missing file is not an error, the defaults are used as they are.
func Load(path string) (*koanf.Koanf, Config, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(DefaultConfig), yaml.Parser()); err != nil {
		return nil, Config{}, fmt.Errorf("load default config: %w", err)
	}
	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, Config{}, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	var conf Config
	if err := k.Unmarshal("", &conf); err != nil {
		return nil, Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return k, LoadSecrets(conf, os.Getenv), nil
}

// LoadSecrets overrides the config with values that only come from the environment
func LoadSecrets(c Config, getenv func(string) string) Config {
	if v := getenv("BANK_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := getenv("BANK_API_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := getenv("BANK_PUSH_URL"); v != "" {
		c.Push.URL = v
	}
	if v := getenv("MONGO_URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("AMQP_URL"); v != "" {
		c.AMQP.URL = v
	}
	if v := getenv("IS_PROD_MODE"); v != "" {
		c.IsProdMode = v == "true"
	}
	return c
}
