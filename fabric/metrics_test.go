package fabric

import "testing"

func TestMetrics_RecordingMethodsDoNotPanic(t *testing.T) {
	m := NewMetrics("test-router")
	m.OnCreditInit(0, 8)
	m.OnCreditIncrement(0)
	m.OnCreditDecrement(0)
	m.RecordGrant(1)
	m.RecordVCDenial()
	m.RecordCongestion(0, 1, 0.75)
}

func TestMetrics_ImplementsCreditWatcher(t *testing.T) {
	var _ CreditWatcher = (*Metrics)(nil)
}
