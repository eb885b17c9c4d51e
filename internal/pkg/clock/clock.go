package clock

import "time"

// Clock abstracts wall-clock reads so expiry and refund-tier boundaries
// can be tested deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the wall-clock backed Clock used in production wiring.
func System() Clock { return systemClock{} }

// Fixed returns a clock frozen at t. Intended for tests and tooling.
func Fixed(t time.Time) Clock { return fixedClock{t} }

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }
