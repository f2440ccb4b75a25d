package main

import (
	"io"

	"github.com/pion/logging"
	"github.com/sirupsen/logrus"
)

// logrusLoggerFactory routes library logs into logrus.
type logrusLoggerFactory struct {
	logger *logrus.Logger
}

func newLogger(out io.Writer, verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}

	return l
}

func (f *logrusLoggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return &logrusLeveledLogger{
		entry: f.logger.WithField("scope", scope),
	}
}

type logrusLeveledLogger struct {
	entry *logrus.Entry
}

func (l *logrusLeveledLogger) Trace(msg string) { l.entry.Trace(msg) }

func (l *logrusLeveledLogger) Tracef(format string, args ...interface{}) {
	l.entry.Tracef(format, args...)
}

func (l *logrusLeveledLogger) Debug(msg string) { l.entry.Debug(msg) }

func (l *logrusLeveledLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *logrusLeveledLogger) Info(msg string) { l.entry.Info(msg) }

func (l *logrusLeveledLogger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *logrusLeveledLogger) Warn(msg string) { l.entry.Warn(msg) }

func (l *logrusLeveledLogger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *logrusLeveledLogger) Error(msg string) { l.entry.Error(msg) }

func (l *logrusLeveledLogger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}
