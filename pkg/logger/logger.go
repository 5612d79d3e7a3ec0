// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package logger holds the diagnostic logger of the setup CLI.
//
// Progress meant for the person running setup is printed by the bootstrap
// package. This logger carries the detail behind it (probe results, locator
// misses, lock handling) and stays quiet unless --debug is set or something
// goes wrong.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/spf13/viper"

	"github.com/stacklok/toolhive-core/env"
	"github.com/stacklok/toolhive-core/logging"
)

// FormatEnvVar selects the log format. "json" emits structured records,
// anything else plain text.
const FormatEnvVar = "SCHOOL_MCP_LOG_FORMAT"

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(newLogger(os.Stderr, true, slog.LevelWarn))
}

// Initialize configures the logger from the environment and the viper
// "debug" key. It is safe to call more than once.
func Initialize() {
	InitializeWithEnv(&env.OSReader{}, os.Stderr)
}

// InitializeWithEnv is Initialize with an injected environment and output.
func InitializeWithEnv(envReader env.Reader, w io.Writer) {
	level := slog.LevelWarn
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	}
	current.Store(newLogger(w, textFormat(envReader), level))
}

func newLogger(w io.Writer, text bool, level slog.Level) *slog.Logger {
	opts := []logging.Option{logging.WithOutput(w), logging.WithLevel(level)}
	if text {
		opts = append(opts, logging.WithFormat(logging.FormatText))
	}
	return logging.New(opts...)
}

func textFormat(envReader env.Reader) bool {
	return !strings.EqualFold(strings.TrimSpace(envReader.Getenv(FormatEnvVar)), "json")
}

// Debug logs msg at debug level.
func Debug(msg string) {
	current.Load().Debug(msg)
}

// Debugw logs msg at debug level with key-value pairs.
func Debugw(msg string, keysAndValues ...any) {
	current.Load().Debug(msg, keysAndValues...)
}

// Warnw logs msg at warning level with key-value pairs.
func Warnw(msg string, keysAndValues ...any) {
	current.Load().Warn(msg, keysAndValues...)
}

// Errorw logs msg at error level with key-value pairs.
func Errorw(msg string, keysAndValues ...any) {
	current.Load().Error(msg, keysAndValues...)
}
