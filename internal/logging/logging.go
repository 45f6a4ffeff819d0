// Package logging wraps logrus with the component-prefix convention the
// rest of the codebase expects (one Logger per component, fields instead
// of baked-in format strings).
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is a component-scoped structured logger.
type Logger struct {
	entry *logrus.Entry
}

var base = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}()

// New returns a Logger scoped to component, e.g. New("execution_engine").
func New(component string) *Logger {
	return &Logger{entry: base.WithField("component", component)}
}

// With returns a derived Logger carrying additional structured fields.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// WarnPluginFailure logs a per-plugin failure at WARNING with the plugin
// name and cause, per spec §7: failures never propagate past the engine
// boundary, but they are always surfaced here.
func (l *Logger) WarnPluginFailure(plugin string, err error) {
	l.entry.WithFields(logrus.Fields{"plugin": plugin, "error": err}).Warn("plugin execution did not succeed")
}
