package env

import (
	"cashflip/internal/config"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type engineYAML struct {
	Engine struct {
		AutoFlipCron   string        `yaml:"auto_flip_cron"`
		ExpiryCron     string        `yaml:"expiry_cron"`
		IdleThreshold  time.Duration `yaml:"idle_threshold"`
		SessionTTL     time.Duration `yaml:"session_ttl"`
		SessionLockTTL time.Duration `yaml:"session_lock_ttl"`
		DBLockTimeout  time.Duration `yaml:"db_lock_timeout"`
		SweepBatchSize int           `yaml:"sweep_batch_size"`
		RTPWindowSize  int           `yaml:"rtp_window_size"`
	} `yaml:"engine"`
}

type engineConfig struct {
	autoFlipSpec   string
	expirySpec     string
	idleThreshold  time.Duration
	sessionTTL     time.Duration
	sessionLockTTL time.Duration
	dbLockTimeout  time.Duration
	sweepBatchSize int
	rtpWindowSize  int
}

// NewEngineConfigFromYAML читает секцию engine из yaml-файла
func NewEngineConfigFromYAML(path string) (config.EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parseEngineConfig(data)
}

func parseEngineConfig(data []byte) (config.EngineConfig, error) {
	var raw engineYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse engine config: %w", err)
	}
	e := raw.Engine

	if e.AutoFlipCron == "" || e.ExpiryCron == "" {
		return nil, fmt.Errorf("engine cron specs are required")
	}
	if e.IdleThreshold <= 0 || e.SessionTTL <= 0 || e.SessionLockTTL <= 0 {
		return nil, fmt.Errorf("engine durations must be positive")
	}
	if e.SweepBatchSize <= 0 {
		e.SweepBatchSize = 100
	}

	return &engineConfig{
		autoFlipSpec:   e.AutoFlipCron,
		expirySpec:     e.ExpiryCron,
		idleThreshold:  e.IdleThreshold,
		sessionTTL:     e.SessionTTL,
		sessionLockTTL: e.SessionLockTTL,
		dbLockTimeout:  e.DBLockTimeout,
		sweepBatchSize: e.SweepBatchSize,
		rtpWindowSize:  e.RTPWindowSize,
	}, nil
}

func (c *engineConfig) AutoFlipSpec() string { return c.autoFlipSpec }
func (c *engineConfig) ExpirySpec() string { return c.expirySpec }
func (c *engineConfig) IdleThreshold() time.Duration { return c.idleThreshold }
func (c *engineConfig) SessionTTL() time.Duration { return c.sessionTTL }
func (c *engineConfig) SessionLockTTL() time.Duration { return c.sessionLockTTL }
func (c *engineConfig) DBLockTimeout() time.Duration { return c.dbLockTimeout }
func (c *engineConfig) SweepBatchSize() int { return c.sweepBatchSize }
func (c *engineConfig) RTPWindowSize() int { return c.rtpWindowSize }
