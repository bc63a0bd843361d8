package swap

import "github.com/sirupsen/logrus"

// Notifier receives user-facing lifecycle events: quote failures, swap
// progress, terminal outcomes.
type Notifier interface {
	Info(title, message string)
	Success(title, message string)
	Error(title, message string)
}

// LogNotifier routes notifications to the structured log.
type LogNotifier struct {
	Logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogNotifier{Logger: logger}
}

func (n *LogNotifier) Info(title, message string) {
	n.Logger.WithField("title", title).Info(message)
}

func (n *LogNotifier) Success(title, message string) {
	n.Logger.WithField("title", title).Info(message)
}

func (n *LogNotifier) Error(title, message string) {
	n.Logger.WithField("title", title).Error(message)
}
