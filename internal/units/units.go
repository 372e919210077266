// Package units parses human-readable lifetimes such as "1d 2h" or "2w".
package units

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDuration is returned for strings no supported form can parse.
var ErrInvalidDuration = errors.New("units: invalid duration")

const (
	day         = 24 * time.Hour
	maxDuration = time.Duration(1<<63 - 1)
)

var unitSizes = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': day,
	'w': 7 * day,
	'M': 30 * day,
	'q': 120 * day,
	'y': 365 * day,
}

// Parse accepts three forms: bare seconds ("3600"), Go durations ("1h30m", "90s"),
// and space-separated unit terms ("1d 2h", "2w", "1M"). Unit terms are summed.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 || n > int64(maxDuration/time.Second) {
			return 0, fmt.Errorf("%w: %q out of range", ErrInvalidDuration, s)
		}
		return time.Duration(n) * time.Second, nil
	}

	var total time.Duration
	fields := strings.Fields(s)
	for _, f := range fields {
		d, err := parseTerm(f)
		if err != nil {
			if len(fields) == 1 {
				if gd, gerr := time.ParseDuration(f); gerr == nil && gd >= 0 {
					return gd, nil
				}
			}
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		if total > maxDuration-d {
			return 0, fmt.Errorf("%w: %q out of range", ErrInvalidDuration, s)
		}
		total += d
	}
	return total, nil
}

func parseTerm(f string) (time.Duration, error) {
	if len(f) < 2 {
		return 0, ErrInvalidDuration
	}
	size, ok := unitSizes[f[len(f)-1]]
	if !ok {
		return 0, ErrInvalidDuration
	}
	n, err := strconv.ParseUint(f[:len(f)-1], 10, 32)
	if err != nil || time.Duration(n) > maxDuration/size {
		return 0, ErrInvalidDuration
	}
	return time.Duration(n) * size, nil
}

// Format renders d with the largest whole units, e.g. "1d 2h". Zero renders as "0s".
func Format(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	order := []byte{'y', 'w', 'd', 'h', 'm', 's'}
	var parts []string
	for _, u := range order {
		size := unitSizes[u]
		if d >= size {
			parts = append(parts, fmt.Sprintf("%d%c", d/size, u))
			d %= size
		}
	}
	if len(parts) == 0 {
		return d.String()
	}
	return strings.Join(parts, " ")
}
