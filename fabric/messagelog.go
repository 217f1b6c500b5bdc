package fabric

import "github.com/sirupsen/logrus"

// MessageLog is the external sink the core reports completed deliveries to
// (SPEC_FULL §6 "To Message Log"). The fabric core treats it as opaque —
// format and storage are an external concern; a Terminal or demo harness
// calls these once per delivered message and to bracket a transaction.
type MessageLog interface {
	LogMessage(msg *Message)
	StartTransaction(id uint64)
	EndTransaction(id uint64)
}

// LogrusMessageLog is a structured-logging MessageLog implementation built
// on logrus, in the style the teacher's cmd/ layer uses logrus for all
// operator-facing output (SPEC_FULL §10). Intended for the demo CLI, where
// a full message-log subsystem (persistence, replay) is out of scope.
type LogrusMessageLog struct {
	Entry *logrus.Entry
}

// NewLogrusMessageLog constructs a LogrusMessageLog writing through the
// standard logger: deliveries at Info level, transaction brackets at Debug
// level.
func NewLogrusMessageLog() *LogrusMessageLog {
	return &LogrusMessageLog{Entry: logrus.WithField("component", "messagelog")}
}

// LogMessage implements MessageLog.
func (l *LogrusMessageLog) LogMessage(msg *Message) {
	latency := msg.DeliveryTime - msg.InjectionTime
	l.Entry.WithFields(logrus.Fields{
		"message":     msg.ID,
		"transaction": msg.Transaction,
		"src":         msg.SourceID,
		"dst":         msg.DestinationID,
		"packets":     len(msg.Packets),
		"latency":     latency,
	}).Info("message delivered")
}

// StartTransaction implements MessageLog.
func (l *LogrusMessageLog) StartTransaction(id uint64) {
	l.Entry.WithField("transaction", id).Debug("transaction start")
}

// EndTransaction implements MessageLog.
func (l *LogrusMessageLog) EndTransaction(id uint64) {
	l.Entry.WithField("transaction", id).Debug("transaction end")
}
