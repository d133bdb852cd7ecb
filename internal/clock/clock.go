package clock

import "time"

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now returns the current time in UTC.
func Now() time.Time { return NowFunc().UTC() }

// Since returns elapsed time from t.
func Since(t time.Time) time.Duration { return Now().Sub(t) }

// Func is a pluggable time source.
type Func func() time.Time

// Fixed returns a time source that always reports t.
func Fixed(t time.Time) Func {
	return func() time.Time { return t }
}
