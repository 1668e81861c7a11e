// Package expiration turns user-supplied expiry values into instants and tests staleness.
package expiration

import (
	"strconv"
	"strings"
	"time"
)

// Never is the expires_in value for links that do not expire.
const Never = "never"

const (
	secondsPerHour = int64(time.Hour / time.Second)
	secondsPerDay  = 24 * secondsPerHour
)

// Relative expiries are kept within the years 1 to 9999, the range timestamps can be
// written in.
var (
	minExpiry = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	maxExpiry = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC).Unix()
)

// Resolve converts expiresIn into an absolute expiry relative to now.
//
// Accepted forms are "<N>h" (hours), "<N>d" (days), "<N>" (seconds) and an RFC 3339
// timestamp. "never", an empty value, or anything unparseable yields nil: the link never
// expires, as does a relative value landing outside the years 1 to 9999. Relative
// results are truncated to whole seconds.
func Resolve(expiresIn string, now time.Time) *time.Time {
	expiresIn = strings.TrimSpace(expiresIn)
	if expiresIn == "" || strings.EqualFold(expiresIn, Never) {
		return nil
	}

	if at, err := time.Parse(time.RFC3339, expiresIn); err == nil {
		return &at
	}

	unit := int64(1)
	number := expiresIn

	switch {
	case strings.HasSuffix(expiresIn, "h"):
		unit, number = secondsPerHour, strings.TrimSuffix(expiresIn, "h")
	case strings.HasSuffix(expiresIn, "d"):
		unit, number = secondsPerDay, strings.TrimSuffix(expiresIn, "d")
	}

	n, err := strconv.ParseInt(number, 10, 64)
	if err != nil {
		return nil
	}

	base := now.Unix()

	// Out of range means never.
	if n > (maxExpiry-base)/unit || n < (minExpiry-base)/unit {
		return nil
	}

	at := time.Unix(base+n*unit, 0)

	return &at
}

// IsExpired reports whether expiresAt lies strictly before now.
// A nil expiry never expires, and an expiry equal to now is still live.
func IsExpired(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return false
	}

	return now.After(*expiresAt)
}
