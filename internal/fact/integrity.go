package fact

import (
	"fmt"

	"github.com/eventlens/warehouse/internal/domain"
)

// CheckReferences is the explicit referential-integrity pass that runs before
// fact rows are committed. The warehouse enforces no foreign keys, so this is
// the only place the fact → dimension convention is actually checked: every
// non-null surrogate key must exist in its dimension. Null keys are legal and
// skipped.
func CheckReferences(rows []domain.FactRow, dims Dimensions) error {
	valid := map[string]map[int64]struct{}{
		"time_sk":     dims.times,
		"user_sk":     keySet(dims.users),
		"content_sk":  keySet(dims.content),
		"banner_sk":   keySet(dims.banners),
		"location_sk": keySet(dims.locations),
	}

	for _, row := range rows {
		refs := map[string]*int64{
			"time_sk":     row.TimeSK,
			"user_sk":     row.UserSK,
			"content_sk":  row.ContentSK,
			"banner_sk":   row.BannerSK,
			"location_sk": row.LocationSK,
		}
		for column, sk := range refs {
			if sk == nil {
				continue
			}
			if _, ok := valid[column][*sk]; !ok {
				return fmt.Errorf("event %q: %s %d: %w", row.EventID, column, *sk, domain.ErrUnresolvedReference)
			}
		}
	}

	return nil
}

func keySet(index map[string]int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(index))
	for _, sk := range index {
		set[sk] = struct{}{}
	}
	return set
}
