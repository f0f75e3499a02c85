// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// NewLogger creates the engine logger. An unknown level falls back to info.
func NewLogger(cfg LogConfiguration) *log.Logger {
	logger := log.New()
	logger.Out = os.Stderr
	logger.Formatter = &log.TextFormatter{FullTimestamp: true}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// Component returns a logger tagged with the component name.
func Component(logger log.FieldLogger, name string) log.FieldLogger {
	return logger.WithField("component", name)
}
