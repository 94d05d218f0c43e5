// Package clock is the time source of stores, trackers and approvals.
package clock

import "time"

// NowFunc returns the current time. Tests replace it through Set.
var NowFunc = time.Now

// Now returns NowFunc() in UTC.
func Now() time.Time { return NowFunc().UTC() }

// Set replaces NowFunc and returns a func restoring the previous one.
func Set(fn func() time.Time) (restore func()) {
	prev := NowFunc
	NowFunc = fn
	return func() { NowFunc = prev }
}
