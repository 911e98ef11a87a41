// Package system is the wall-clock implementation of archive.Clock.
// Checkpoint timestamps must compare across machines and restarts, so
// everything is stamped in UTC.
package system

import "time"

// Clock reads the system time.
type Clock struct{}

// New returns a Clock.
func New() Clock {
	return Clock{}
}

// Now returns the current UTC time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
