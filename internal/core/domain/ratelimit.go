package domain

import "time"

// RateVerdict tags the outcome of a rate-limit check.
type RateVerdict int

const (
	RateAllowed RateVerdict = iota
	// RateDeniedQuota means the requester used up the current window.
	RateDeniedQuota
	// RateDeniedUnavailable means the counter could not be read or updated.
	// The limiter fails closed, so this also blocks the call.
	RateDeniedUnavailable
)

func (v RateVerdict) String() string {
	switch v {
	case RateAllowed:
		return "allowed"
	case RateDeniedQuota:
		return "denied_quota"
	case RateDeniedUnavailable:
		return "denied_unavailable"
	}
	return "unknown"
}

// RateDecision is the result of checking and counting one call.
type RateDecision struct {
	Verdict     RateVerdict
	Count       int
	WindowStart time.Time
	Err         error
}

func (d RateDecision) Allowed() bool { return d.Verdict == RateAllowed }
