// Package idgen wraps the UUID generator used for turn and message ids so
// that it can be stubbed in tests.
package idgen
