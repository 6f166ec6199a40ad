package dimension

import (
	"cloud.google.com/go/civil"
	"github.com/dgryski/go-farm"
)

// Surrogate keys are 64-bit farm fingerprints of the natural key, scoped per
// dimension so the same natural-key text never collides across dimensions.
// Keys are stable for the life of the natural-key value: the same input always
// yields the same key, on any machine.

func fingerprint(scope, key string) int64 {
	return int64(farm.Fingerprint64([]byte(scope + "\x00" + key)))
}

// UserKey returns the surrogate key for a source-system user identifier.
func UserKey(userID string) int64 {
	return fingerprint("user", userID)
}

// ContentKey returns the surrogate key for a content URL.
func ContentKey(url string) int64 {
	return fingerprint("content", url)
}

// BannerKey returns the surrogate key for a (banner name, banner size) pair.
// Size may be empty when the composite identifier carried none.
func BannerKey(name, size string) int64 {
	return fingerprint("banner", name+"\x00"+size)
}

// LocationKey returns the surrogate key for an IP address.
func LocationKey(ip string) int64 {
	return fingerprint("location", ip)
}

// TimeKey returns the surrogate key for a calendar date: the date encoded as
// yyyymmdd, so 2025-08-01 yields 20250801. Unlike the fingerprint keys this
// encoding is human readable and sorts chronologically.
func TimeKey(d civil.Date) int64 {
	return int64(d.Year)*10000 + int64(d.Month)*100 + int64(d.Day)
}
