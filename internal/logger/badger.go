package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Badger adapts l to badger.Logger. Badger's info messages are routine
// compaction and replay notes, so they are logged at debug level.
func Badger(l *zap.Logger) *BadgerLogger {
	return &BadgerLogger{s: l.Named("badger").WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

type BadgerLogger struct {
	s *zap.SugaredLogger
}

func (b *BadgerLogger) Errorf(format string, args ...any) {
	b.s.Errorf(trim(format), args...)
}

func (b *BadgerLogger) Warningf(format string, args ...any) {
	b.s.Warnf(trim(format), args...)
}

func (b *BadgerLogger) Infof(format string, args ...any) {
	b.s.Debugf(trim(format), args...)
}

func (b *BadgerLogger) Debugf(format string, args ...any) {
	b.s.Debugf(trim(format), args...)
}

// badger terminates most messages with a newline
func trim(format string) string {
	return strings.TrimSuffix(format, "\n")
}
