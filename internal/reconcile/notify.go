package reconcile

import (
	"time"

	"fjacquet/txn-import/internal/logging"
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is a transient, user-visible message about an operation.
type Notification struct {
	Level   Level
	Action  string
	GUID    string
	Message string
	At      time.Time
}

// Notifier receives notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify calls f.
func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier writes notifications through the structured logger.
type LogNotifier struct {
	logger logging.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &LogNotifier{logger: logger}
}

// Notify logs n at info or error level.
func (l *LogNotifier) Notify(n Notification) {
	fields := []logging.Field{{Key: logging.FieldOperation, Value: n.Action}}
	if n.GUID != "" {
		fields = append(fields, logging.Field{Key: logging.FieldGUID, Value: n.GUID})
	}
	if n.Level == LevelError {
		l.logger.Error(n.Message, fields...)
		return
	}
	l.logger.Info(n.Message, fields...)
}
