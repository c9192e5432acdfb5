package domain

import "time"

// =============================================================================
// CLOCK - Injected time source
// =============================================================================

// Clock supplies timestamps for created/updated fields and movement dates.
// Injecting it keeps the stores and the Movement Engine deterministic in
// tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. For tests.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }
