package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Symbol  string `yaml:"symbol"`
	APIURL  string `yaml:"api_url"`
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
}

func defaultConfig() Config {
	var c Config
	c.Symbol = "ETHUSDTM"
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	return c
}

// Load builds the effective config: defaults, then the optional YAML
// file named by DEPTHWATCH_CONFIG, then environment overrides. A .env
// file in the working directory is honored. Load never fails; missing
// or unreadable sources leave the defaults in place.
func Load() Config {
	_ = godotenv.Load()

	c := defaultConfig()

	if path := os.Getenv("DEPTHWATCH_CONFIG"); path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &c)
		}
	}

	if v := os.Getenv("DEPTHWATCH_SYMBOL"); v != "" {
		c.Symbol = v
	}
	if v := os.Getenv("DEPTHWATCH_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("DEPTHWATCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DEPTHWATCH_LOG_PRETTY"); v != "" {
		c.Logging.Pretty = v == "1" || v == "true"
	}

	return c
}
