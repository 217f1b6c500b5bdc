package fabric

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// ConfigurationError reports a fatal, construction-time misconfiguration:
// an unknown variant tag, a missing required field, an out-of-range size,
// or mutually incompatible options. Constructors panic with this type so
// no simulation progresses with an ill-formed topology.
type ConfigurationError struct {
	Component string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Reason)
}

func configErrorf(component, format string, args ...interface{}) {
	panic(&ConfigurationError{Component: component, Reason: fmt.Sprintf(format, args...)})
}

// InvariantViolation reports a fatal runtime programmer error: credit
// underflow, a grant without a matching request, a double-grant of a VC,
// a pipeline stage holding more than one flit, mid-packet port
// interleaving, or a buffer overflow. The core never recovers from one of
// these; it panics with enough context to localize the offending caller.
type InvariantViolation struct {
	Component string
	Reason    string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Component, e.Reason)
}

func invariantf(component, format string, args ...interface{}) {
	panic(&InvariantViolation{Component: component, Reason: fmt.Sprintf(format, args...)})
}

// warnOnce gates an OperationalWarning so it is logged at most once per
// process, per distinct warning key, regardless of how many times the
// offending configuration is exercised.
type warnOnce struct {
	mu    sync.Mutex
	fired map[string]bool
}

var processWarnings = &warnOnce{fired: make(map[string]bool)}

// OperationalWarning logs a non-fatal condition exactly once per key. It is
// not an error type — callers never receive it as a return value — it is a
// logged side effect, matching spec.md's "logged once, non-fatal" class.
func OperationalWarning(key, format string, args ...interface{}) {
	processWarnings.mu.Lock()
	defer processWarnings.mu.Unlock()
	if processWarnings.fired[key] {
		return
	}
	processWarnings.fired[key] = true
	logrus.Warnf(format, args...)
}
