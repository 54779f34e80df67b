package asdf

import (
	"fmt"
	"log"
)

// Logger defines an interface for writing log messages.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// DefaultLogger logs to the Go stdlib logs.
type DefaultLogger struct{}

var _ Logger = DefaultLogger{}

// Infof implements the Logger.Infof interface.
func (DefaultLogger) Infof(format string, args ...interface{}) {
	_ = log.Output(2, fmt.Sprintf(format, args...))
}

// Errorf implements the Logger.Errorf interface.
func (DefaultLogger) Errorf(format string, args ...interface{}) {
	_ = log.Output(2, "ERROR: "+fmt.Sprintf(format, args...))
}

type noopLogger struct{}

func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Errorf(string, ...interface{}) {}
