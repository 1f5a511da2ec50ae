package env

import (
	"cashflip/internal/config"
	"os"
)

const (
	logLevelEnvName       = "LOG_LEVEL"
	logEncodingEnvName    = "LOG_ENCODING"
	logDevelopmentEnvName = "LOG_DEVELOPMENT"
)

type logConfig struct {
	level       string
	encoding    string
	development bool
}

func NewLogConfig() (config.LogConfig, error) {
	level := os.Getenv(logLevelEnvName)
	if len(level) == 0 {
		level = "info"
	}

	encoding := os.Getenv(logEncodingEnvName)
	if encoding != "console" {
		encoding = "json"
	}

	return &logConfig{
		level:       level,
		encoding:    encoding,
		development: os.Getenv(logDevelopmentEnvName) == "true",
	}, nil
}

func (cfg *logConfig) Level() string {
	return cfg.level
}

func (cfg *logConfig) Encoding() string {
	return cfg.encoding
}

func (cfg *logConfig) Development() bool {
	return cfg.development
}
