// Package logging is the structured logging layer. Components take a
// Logger in their constructor; the CLI backs it with logrus.
package logging

// Logger is the structured logger every component logs through.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// Fatal and Fatalf exit the process after logging.
	Fatal(msg string, fields ...Field)
	Fatalf(msg string, args ...interface{})

	WithError(err error) Logger
	WithField(key string, value interface{}) Logger
	WithFields(fields ...Field) Logger
}

// Field is one structured key/value pair. Keys come from constants.go.
type Field struct {
	Key   string
	Value interface{}
}
