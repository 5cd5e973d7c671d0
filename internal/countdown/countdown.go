// Package countdown implements the one-second resend cooldown shared by the
// login and export OTP flows.
package countdown

import "fmt"

// Countdown counts whole seconds down to zero. It holds no timer of its
// own; the owner ticks it once per second.
type Countdown struct {
	remaining int
}

// New starts a countdown at the given number of seconds.
func New(seconds int) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{remaining: seconds}
}

// Tick decrements by one second, clamped at zero.
func (c *Countdown) Tick() {
	if c.remaining > 0 {
		c.remaining--
	}
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int { return c.remaining }

// Done reports whether the countdown reached zero.
func (c *Countdown) Done() bool { return c.remaining == 0 }

// Reset restarts the countdown at the given number of seconds.
func (c *Countdown) Reset(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	c.remaining = seconds
}

// Format renders seconds as M:SS for display.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
