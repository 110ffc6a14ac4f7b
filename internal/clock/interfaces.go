package clock

import "time"

// Clock schedules deferred transitions. Session components never call the
// time package directly so tests can drive them with virtual time.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

type Timer interface {
	// Stop prevents the timer from firing. It reports whether the call
	// stopped the timer (false if it already fired or was stopped).
	Stop() bool
}
