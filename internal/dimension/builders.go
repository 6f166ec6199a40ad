package dimension

import (
	"strings"

	"github.com/eventlens/warehouse/internal/domain"
	"github.com/eventlens/warehouse/internal/types"
)

// Builders extract distinct dimension rows from a batch of staging events.
// Each builder keys on the dimension's natural key, keeps the first occurrence
// and skips events where the natural key is absent. Surrogate keys are
// assigned deterministically from the natural key.

// ExtractUsers returns one UserRow per distinct source-system user identifier.
func ExtractUsers(events []domain.StagingEvent) []domain.UserRow {
	seen := make(map[string]struct{})
	rows := make([]domain.UserRow, 0)
	for _, e := range events {
		id := strings.TrimSpace(e.UserID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		rows = append(rows, domain.UserRow{UserSK: UserKey(id), UserID: id})
	}
	return rows
}

// ExtractContent returns one ContentRow per distinct URL.
func ExtractContent(events []domain.StagingEvent) []domain.ContentRow {
	seen := make(map[string]struct{})
	rows := make([]domain.ContentRow, 0)
	for _, e := range events {
		url := strings.TrimSpace(e.URL)
		if url == "" {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}

		l1, l2, l3 := normalizeCategory(e)
		rows = append(rows, domain.ContentRow{
			ContentSK:      ContentKey(url),
			URL:            url,
			SentimentScore: types.FloatOrNil(e.SentimentScore),
			Entities:       types.StringOrNil(e.Entities),
			CategoryLevel1: l1,
			CategoryLevel2: l2,
			CategoryLevel3: l3,
		})
	}
	return rows
}

// normalizeCategory reconciles the two upstream staging shapes: one delivers
// three pre-split level columns, the other a single slash-delimited path in
// the first column. A path in level 1 with empty higher levels is split here.
func normalizeCategory(e domain.StagingEvent) (l1, l2, l3 *string) {
	if strings.Contains(e.CategoryLevel1, "/") && e.CategoryLevel2 == "" && e.CategoryLevel3 == "" {
		return SplitCategory(e.CategoryLevel1)
	}
	return types.StringOrNil(e.CategoryLevel1), types.StringOrNil(e.CategoryLevel2), types.StringOrNil(e.CategoryLevel3)
}

// ExtractBanners returns one BannerRow per distinct (name, size) pair parsed
// from the composite banner identifier.
func ExtractBanners(events []domain.StagingEvent) []domain.BannerRow {
	seen := make(map[string]struct{})
	rows := make([]domain.BannerRow, 0)
	for _, e := range events {
		if strings.TrimSpace(e.Banner) == "" {
			continue
		}
		name, size := ParseBanner(e.Banner)
		key := name + "\x00" + size
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		row := domain.BannerRow{BannerSK: BannerKey(name, size), BannerName: name}
		if size != "" {
			row.BannerSize = types.StringPtr(size)
		}
		rows = append(rows, row)
	}
	return rows
}

// ExtractLocations returns one LocationRow per distinct IP address.
func ExtractLocations(events []domain.StagingEvent) []domain.LocationRow {
	seen := make(map[string]struct{})
	rows := make([]domain.LocationRow, 0)
	for _, e := range events {
		ip := strings.TrimSpace(e.IP)
		if ip == "" {
			continue
		}
		if _, ok := seen[ip]; ok {
			continue
		}
		seen[ip] = struct{}{}
		rows = append(rows, domain.LocationRow{
			LocationSK: LocationKey(ip),
			IP:         ip,
			Country:    types.StringOrNil(e.Country),
			City:       types.StringOrNil(e.City),
		})
	}
	return rows
}
