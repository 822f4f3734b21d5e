package retry

import (
	"math"
	"math/rand"
	"time"
)

// Default retry configuration constants.
const (
	// DefaultRetries is the number of retries used when none is configured.
	DefaultRetries = 3

	// MaxRetries is the upper bound on configured retries.
	MaxRetries = 10

	// BaseDelay is the delay before the first retry, before jitter.
	BaseDelay = 100 * time.Millisecond

	// MaxJitter bounds the random component added to each delay.
	MaxJitter = 250 * time.Millisecond

	// MinDelay is the shortest wait between attempts.
	MinDelay = 250 * time.Millisecond

	// MaxDelay is the longest wait between attempts.
	MaxDelay = 1000 * time.Millisecond
)

// JitterFunc returns a uniformly distributed integer in [lo, hi].
type JitterFunc func(lo, hi int64) int64

// Policy describes the retry schedule for one logical request.
// The zero value is not useful; use NewPolicy.
type Policy struct {
	MaxTries  int
	BaseDelay time.Duration
	MaxJitter time.Duration
	MinDelay  time.Duration
	MaxDelay  time.Duration
}

// NewPolicy builds the policy for the given number of configured retries.
// Values above MaxRetries are capped and negative values mean no retries.
func NewPolicy(retries int) Policy {
	if retries < 0 {
		retries = 0
	}
	return Policy{
		MaxTries:  1 + min(retries, MaxRetries),
		BaseDelay: BaseDelay,
		MaxJitter: MaxJitter,
		MinDelay:  MinDelay,
		MaxDelay:  MaxDelay,
	}
}

// DefaultPolicy is NewPolicy(DefaultRetries).
func DefaultPolicy() Policy {
	return NewPolicy(DefaultRetries)
}

// Retries returns the number of retries the policy allows after the first attempt.
func (p Policy) Retries() int {
	return p.MaxTries - 1
}

// Delay returns the wait before retry n (n >= 1).
//
// The exponential wait base*2^(n-1) gets a random jitter in
// [wait+1ms, wait+MaxJitter] added, is clamped to [MinDelay, MaxDelay] and
// is rounded to hundredths of a second. A nil jitter uses math/rand.
func (p Policy) Delay(n int, jitter JitterFunc) time.Duration {
	n = max(1, min(n, 32))
	if jitter == nil {
		jitter = UniformJitter
	}

	// Millisecond arithmetic keeps the schedule identical to the documented one.
	wait := p.BaseDelay.Milliseconds() * int64(math.Pow(2, float64(n-1)))
	wait += jitter(wait+1, wait+p.MaxJitter.Milliseconds())

	wait = min(wait, p.MaxDelay.Milliseconds())
	wait = max(wait, p.MinDelay.Milliseconds())

	centis := int64(math.Round(float64(wait) / 10))
	return time.Duration(centis) * 10 * time.Millisecond
}

// UniformJitter draws from math/rand. Jitter only spreads retries, so a
// non-cryptographic source is fine.
func UniformJitter(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	//nolint:gosec // G404: jitter for retry timing is not security-sensitive
	return lo + rand.Int63n(hi-lo+1)
}
