// Package logging builds the logrus logger used by gamestate tools and adapts
// it to the gamestate.Logger interface.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	gamestate "github.com/goliatone/go-gamestate"
)

// Config selects level, format and destination. An empty File logs to
// stdout; otherwise output goes to a size-rotated file.
type Config struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New returns a configured logger and a closer for its output. Unknown
// levels fall back to info; any format other than "json" uses text.
func New(cfg Config) (*logrus.Logger, io.Closer) {
	log := logrus.New()

	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.File == "" {
		log.SetOutput(os.Stdout)
		return log, nopCloser{}
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    orDefault(cfg.MaxSizeMB, 10),
		MaxBackups: orDefault(cfg.MaxBackups, 3),
		MaxAge:     orDefault(cfg.MaxAgeDays, 28),
	}
	log.SetOutput(rotator)
	return log, rotator
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Adapter forwards gamestate log calls to a logrus entry.
type Adapter struct {
	entry *logrus.Entry
}

var _ gamestate.Logger = (*Adapter)(nil)

// NewAdapter wraps log. A nil logger uses logrus' standard logger.
func NewAdapter(log *logrus.Logger) *Adapter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Adapter{entry: logrus.NewEntry(log)}
}

// With returns an adapter that adds fields to every entry.
func (a *Adapter) With(fields gamestate.Fields) *Adapter {
	return &Adapter{entry: a.entry.WithFields(logrus.Fields(fields))}
}

func (a *Adapter) Debug(msg string, fields gamestate.Fields) {
	a.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (a *Adapter) Info(msg string, fields gamestate.Fields) {
	a.entry.WithFields(logrus.Fields(fields)).Info(msg)
}

func (a *Adapter) Warn(msg string, fields gamestate.Fields) {
	a.entry.WithFields(logrus.Fields(fields)).Warn(msg)
}

func (a *Adapter) Error(msg string, fields gamestate.Fields) {
	a.entry.WithFields(logrus.Fields(fields)).Error(msg)
}
