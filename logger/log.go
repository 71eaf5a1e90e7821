// Copyright (c) 2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package logger provides the subsystem loggers used across the consensus
// engine. It mirrors the subsystem-logger convention used throughout the
// kaspad/btcd family of nodes, trimmed down to the two subsystems this module
// cares about.
package logger

import (
	"github.com/btcsuite/btclog"
)

// SubsystemTags is an enum of all the subsystem tags known to this module.
var SubsystemTags = struct {
	PHTM, // the coloring/ordering engine
	ATCK string // the competing-chain attack extension
}{
	PHTM: "PHTM",
	ATCK: "ATCK",
}

// backendLog is the logging backend all subsystem loggers are created from.
// Unlike a full node, this module has no log file of its own to rotate into
// and is given no writer, so log calls are silently dropped; this package
// has no function for attaching a writer or another backend.
var backendLog = btclog.NewBackend()

var (
	phtmLog = backendLog.Logger(SubsystemTags.PHTM)
	atckLog = backendLog.Logger(SubsystemTags.ATCK)
)

var subsystemLoggers = map[string]btclog.Logger{
	SubsystemTags.PHTM: phtmLog,
	SubsystemTags.ATCK: atckLog,
}

// Phantom returns the logger for the coloring/ordering engine.
func Phantom() btclog.Logger {
	return phtmLog
}

// Attack returns the logger for the competing-chain attack extension.
func Attack() btclog.Logger {
	return atckLog
}

// SetLogLevel sets the logging level for the given subsystem. Invalid
// subsystems are ignored.
func SetLogLevel(subsystemID string, level btclog.Level) {
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}
	logger.SetLevel(level)
}

// SetLogLevels sets the logging level for every subsystem logger.
func SetLogLevels(level btclog.Level) {
	for subsystemID := range subsystemLoggers {
		SetLogLevel(subsystemID, level)
	}
}

// DisableLog disables all library log output by setting every subsystem
// logger to LevelOff. Nothing in this package calls it by default.
func DisableLog() {
	for _, l := range subsystemLoggers {
		l.SetLevel(btclog.LevelOff)
	}
}
