// Package logger provides the process-wide logging facade for swarmgate.
//
// All output goes to stderr: stdout belongs to the MCP stdio transport and
// must carry nothing but protocol frames.
package logger

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

var std = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return l
}

// Init sets the log level from its string form ("debug", "info", ...).
func Init(level string) error {
	if level == "" {
		level = "info"
	}
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	std.SetLevel(lv)
	return nil
}

func Debug(format string, args ...any) {
	std.Debugf(format, args...)
}

func Info(format string, args ...any) {
	std.Infof(format, args...)
}

func Warn(format string, args ...any) {
	std.Warnf(format, args...)
}

func Error(format string, args ...any) {
	std.Errorf(format, args...)
}
