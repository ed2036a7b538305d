package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/goliatone/go-gamestate/pkg/logging"
)

type config struct {
	SaveDir     string `env:"SAVE_DIR" envDefault:"saves"`
	Format      string `env:"SAVE_FORMAT" envDefault:"json"`
	Backend     string `env:"SAVE_BACKEND" envDefault:"file"`
	Profile     string `env:"SAVE_PROFILE" envDefault:"player"`
	Slot        int    `env:"SAVE_SLOT" envDefault:"0"`
	LayoutFile  string `env:"STORY_LAYOUT"`
	RulesFile   string `env:"ACHIEVEMENTS_FILE"`
	Engine      string `env:"CONDITION_ENGINE" envDefault:"expr"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`
	LogFile     string `env:"LOG_FILE"`
	Telemetry   bool   `env:"TELEMETRY_ENABLED" envDefault:"false"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"gamestate-savetool"`

	ActivityLog   bool     `env:"ACTIVITY_LOG" envDefault:"false"`
	ActivityVerbs []string `env:"ACTIVITY_VERBS" envSeparator:","`
	ActivityMuted []string `env:"ACTIVITY_MUTED" envSeparator:","`
}

func parseConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c config) loggingConfig() logging.Config {
	return logging.Config{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		File:   c.LogFile,
	}
}
