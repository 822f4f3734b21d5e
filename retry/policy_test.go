package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPolicy(t *testing.T) {
	testCases := []struct {
		name     string
		retries  int
		maxTries int
	}{
		{name: "no retries", retries: 0, maxTries: 1},
		{name: "two retries", retries: 2, maxTries: 3},
		{name: "default retries", retries: DefaultRetries, maxTries: 4},
		{name: "capped at ten", retries: 25, maxTries: 11},
		{name: "negative means none", retries: -4, maxTries: 1},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			p := NewPolicy(testCase.retries)
			assert.Equal(t, testCase.maxTries, p.MaxTries)
			assert.Equal(t, testCase.maxTries-1, p.Retries())
		})
	}

	assert.Equal(t, NewPolicy(DefaultRetries), DefaultPolicy())
}

func TestPolicy_Delay(t *testing.T) {
	p := DefaultPolicy()

	lowest := func(lo, hi int64) int64 { return lo }
	highest := func(lo, hi int64) int64 { return hi }

	testCases := []struct {
		name     string
		attempt  int
		jitter   JitterFunc
		expected time.Duration
	}{
		// wait=100, jitter 101 => 201, raised to the 250 floor.
		{name: "first retry, low jitter clamps to min", attempt: 1, jitter: lowest, expected: 250 * time.Millisecond},
		// wait=100, jitter 350 => 450.
		{name: "first retry, high jitter", attempt: 1, jitter: highest, expected: 450 * time.Millisecond},
		// wait=200, jitter 201 => 401 => 0.40s.
		{name: "second retry, low jitter rounds", attempt: 2, jitter: lowest, expected: 400 * time.Millisecond},
		// wait=200, jitter 450 => 650.
		{name: "second retry, high jitter", attempt: 2, jitter: highest, expected: 650 * time.Millisecond},
		// wait=400, jitter 401 => 801 => 0.80s.
		{name: "third retry, low jitter", attempt: 3, jitter: lowest, expected: 800 * time.Millisecond},
		{name: "third retry, high jitter capped", attempt: 3, jitter: highest, expected: time.Second},
		{name: "late retries stay capped", attempt: 10, jitter: lowest, expected: time.Second},
		{name: "attempt below one treated as one", attempt: 0, jitter: lowest, expected: 250 * time.Millisecond},
		// wait=200, jitter 205 => 405 => 0.41s.
		{name: "rounds half up to hundredths", attempt: 2, jitter: func(lo, hi int64) int64 { return lo + 4 }, expected: 410 * time.Millisecond},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, p.Delay(testCase.attempt, testCase.jitter))
		})
	}
}

func TestPolicy_DelayBounds(t *testing.T) {
	p := NewPolicy(MaxRetries)

	for attempt := 1; attempt <= MaxRetries; attempt++ {
		for i := 0; i < 200; i++ {
			d := p.Delay(attempt, nil)
			assert.GreaterOrEqual(t, d, MinDelay)
			assert.LessOrEqual(t, d, MaxDelay)
			assert.Zero(t, d%(10*time.Millisecond), "delay %s is not rounded to hundredths", d)
		}
	}
}

func TestUniformJitter(t *testing.T) {
	for i := 0; i < 500; i++ {
		v := UniformJitter(101, 350)
		assert.GreaterOrEqual(t, v, int64(101))
		assert.LessOrEqual(t, v, int64(350))
	}

	assert.Equal(t, int64(7), UniformJitter(7, 7))
	assert.Equal(t, int64(7), UniformJitter(7, 3))
}
