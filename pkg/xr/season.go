package xr

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseSeason normalizes the various season spellings seen in feeds
// ("2025", "2025-26", "2025-2026", "25-26") to the canonical "YYYY-YY" form.
func ParseSeason(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty season string")
	}

	parts := strings.Split(s, "-")
	switch len(parts) {
	case 1:
		start, err := strconv.Atoi(parts[0])
		if err != nil {
			return "", fmt.Errorf("invalid season year %q: %w", s, err)
		}
		if start < 100 {
			start += 2000
		}
		return formatSeason(start), nil
	case 2:
		start, err := strconv.Atoi(parts[0])
		if err != nil {
			return "", fmt.Errorf("invalid season start %q: %w", s, err)
		}
		if start < 100 {
			start += 2000
		}
		end, err := strconv.Atoi(parts[1])
		if err != nil {
			return "", fmt.Errorf("invalid season end %q: %w", s, err)
		}
		if end < 100 {
			end += 2000
		}
		if end != start+1 {
			return "", fmt.Errorf("season years must be consecutive, got %d-%d", start, end)
		}
		return formatSeason(start), nil
	default:
		return "", fmt.Errorf("unrecognized season format %q", s)
	}
}

func formatSeason(startYear int) string {
	return fmt.Sprintf("%d-%02d", startYear, (startYear+1)%100)
}

// SeasonStartYear returns the first calendar year of a canonical season label
func SeasonStartYear(season string) (int, error) {
	canonical, err := ParseSeason(season)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(canonical[:4])
}

// CurrentSeason derives the canonical season label for a point in time.
// A European season rolls over in July.
func CurrentSeason(now time.Time) string {
	year := now.Year()
	if now.Month() < time.July {
		year--
	}
	return formatSeason(year)
}
