package dimension

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/eventlens/warehouse/internal/domain"
)

// bannerSizePattern matches a trailing WIDTHxHEIGHT component of a composite
// banner identifier, e.g. the "300x250" in "summer_promo_300x250".
var bannerSizePattern = regexp.MustCompile(`^(.*)_(\d+x\d+)$`)

// ParseBanner splits a composite raw banner identifier into its banner name
// and banner size. Identifiers without a recognizable size component yield the
// whole identifier as the name and an empty size.
func ParseBanner(raw string) (name, size string) {
	raw = strings.TrimSpace(raw)
	if m := bannerSizePattern.FindStringSubmatch(raw); m != nil {
		return m[1], m[2]
	}
	return raw, ""
}

// SplitCategory splits a slash-delimited category path into up to three
// hierarchy levels. Leading and trailing slashes are ignored and empty
// segments become nulls, so "/electronics/audio/" yields two levels.
func SplitCategory(path string) (l1, l2, l3 *string) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(path), "/"), "/")
	levels := make([]*string, 0, 3)
	for _, p := range parts {
		if p == "" {
			continue
		}
		p := p
		levels = append(levels, &p)
		if len(levels) == 3 {
			break
		}
	}
	for len(levels) < 3 {
		levels = append(levels, nil)
	}
	return levels[0], levels[1], levels[2]
}

// eventTimeLayout matches the staging timestamp format, with optional
// fractional seconds.
const eventTimeLayout = "2006-01-02 15:04:05.999999"

// ParseEventTime parses a staging timestamp string. Timestamps are recorded in
// UTC without a zone designator.
func ParseEventTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(eventTimeLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", s, domain.ErrBadEventTime)
	}
	return t, nil
}
