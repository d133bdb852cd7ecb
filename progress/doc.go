// Package progress keeps in-process counters of how handled turns left their
// conversations. The admin API serves a snapshot of the counters.
package progress
