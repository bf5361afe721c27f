package batchupload

import "log/slog"

// Level is the severity of a user-facing notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier shows short status messages to the user.
type Notifier interface {
	Notify(level Level, msg string)
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(Level, string) {}

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Notify(level Level, msg string) {
	switch level {
	case LevelError:
		n.Log.Error(msg)
	case LevelWarning:
		n.Log.Warn(msg)
	default:
		n.Log.Info(msg, "level", level.String())
	}
}
