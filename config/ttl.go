package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ParseTTL parses a lifetime such as "15m", "7d" or "1h30m". A bare integer is read as seconds.
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, errors.Errorf("duration must be positive: %q", s)
		}

		return time.Duration(n) * time.Second, nil
	}

	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, errors.Errorf("invalid day duration: %q", s)
		}

		return time.Duration(n) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", s)
	}
	if d <= 0 {
		return 0, errors.Errorf("duration must be positive: %q", s)
	}

	return d, nil
}

// AccessTTL returns the parsed access-token lifetime.
func (c *Config) AccessTTL() (time.Duration, error) {
	if c.Token == nil {
		return ParseTTL(defaultAccessTTL)
	}

	return ParseTTL(c.Token.AccessTTL)
}

// RefreshTTL returns the parsed refresh-token lifetime.
func (c *Config) RefreshTTL() (time.Duration, error) {
	if c.Token == nil {
		return ParseTTL(defaultRefreshTTL)
	}

	return ParseTTL(c.Token.RefreshTTL)
}
