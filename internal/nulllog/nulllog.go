// Package nulllog contains a no-op simnet.Logger.
package nulllog

import "github.com/bassosimone/simnet"

// Logger is a simnet.Logger that does not emit logs.
type Logger struct{}

// Debug implements simnet.Logger.
func (lg *Logger) Debug(message string) {
	// nothing
}

// Debugf implements simnet.Logger.
func (lg *Logger) Debugf(format string, v ...any) {
	// nothing
}

// Info implements simnet.Logger.
func (lg *Logger) Info(message string) {
	// nothing
}

// Infof implements simnet.Logger.
func (lg *Logger) Infof(format string, v ...any) {
	// nothing
}

// Warn implements simnet.Logger.
func (lg *Logger) Warn(message string) {
	// nothing
}

// Warnf implements simnet.Logger.
func (lg *Logger) Warnf(format string, v ...any) {
	// nothing
}

var _ simnet.Logger = &Logger{}
