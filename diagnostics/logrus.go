package diagnostics

import (
	"github.com/sirupsen/logrus"
)

// LogrusObserver writes lifecycle events to a logrus logger, for
// applications that already route their logs through logrus.
type LogrusObserver struct {
	logger logrus.FieldLogger
}

// NewLogrus returns an observer logging to l. A nil logger falls back to
// the logrus standard logger.
func NewLogrus(l logrus.FieldLogger) *LogrusObserver {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &LogrusObserver{logger: l}
}

// Handling implements Observer.
func (o *LogrusObserver) Handling(kind string, obj any) {
	o.fields(kind, obj).Debug("handling")
}

// Releasing implements Observer.
func (o *LogrusObserver) Releasing(kind string, obj any) {
	o.fields(kind, obj).Debug("releasing")
}

// Skipped implements Observer.
func (o *LogrusObserver) Skipped(kind string, obj any, reason string) {
	o.fields(kind, obj).WithField("reason", reason).Warn("skipped")
}

func (o *LogrusObserver) fields(kind string, obj any) logrus.FieldLogger {
	return o.logger.WithFields(logrus.Fields{
		"kind":   kind,
		"object": identity(obj),
		"repr":   repr(obj),
	})
}
