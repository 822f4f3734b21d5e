// Package retry computes how many times a rate-limited request may be
// attempted and how long to wait between attempts.
//
// The policy is a pure function of the attempt number and a jitter source;
// the transport package owns the loop that consults it.
package retry
