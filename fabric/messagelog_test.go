package fabric

import "testing"

func TestLogrusMessageLog_ImplementsMessageLog(t *testing.T) {
	var _ MessageLog = (*LogrusMessageLog)(nil)
}

func TestLogrusMessageLog_LogMessageDoesNotPanic(t *testing.T) {
	l := NewLogrusMessageLog()
	msg := NewMessage(1, 0, 3)
	msg.InjectionTime = 10
	msg.DeliveryTime = 25
	msg.Transaction = 7
	msg.AddPacket(NewPacket(100))

	// GIVEN a message log and a delivered message
	// WHEN the delivery and transaction bracket methods are called
	// THEN none of them panic, matching the opaque-sink contract in SPEC_FULL §6.
	l.StartTransaction(msg.Transaction)
	l.LogMessage(msg)
	l.EndTransaction(msg.Transaction)
}
