package config

import (
	"time"

	"github.com/joho/godotenv"
)

func Load(path string) error {
	err := godotenv.Load(path)
	if err != nil {
		return err
	}
	return nil
}

type HTTPConfig interface {
	Address() string
	ShutdownTimeout() time.Duration
}

type PGConfig interface {
	DSN() string
}

type JWTConfig interface {
	AccessTokenSecretKey() []byte
}

type RedisConfig interface {
	// Enabled - false, если адрес не задан: тогда блокировки живут в памяти процесса
	Enabled() bool
	Address() string
	Password() string
	DB() int
}

type LogConfig interface {
	Level() string
	Encoding() string
	Development() bool
}

// EngineConfig - настройки движка сессий из config.yaml
type EngineConfig interface {
	AutoFlipSpec() string
	ExpirySpec() string
	IdleThreshold() time.Duration
	SessionTTL() time.Duration
	SessionLockTTL() time.Duration
	DBLockTimeout() time.Duration
	SweepBatchSize() int
	RTPWindowSize() int
}
