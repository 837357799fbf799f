package lksauth

import "time"

// Clock supplies the instant tokens are checked against.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock on every call.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// FixedClock returns a Clock stuck at t.
func FixedClock(t time.Time) Clock {
	return fixedClock{t: t}
}
