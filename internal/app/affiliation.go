package app

import (
	"strings"

	"github.com/jschilling12/justabill/internal/domain"
)

// NormalizeAffiliation maps free-text self-reported affiliation onto the
// buckets used for segmented stats. Matching is case-insensitive and
// keyword-based; anything unrecognized lands in BucketOther.
func NormalizeAffiliation(raw string) domain.AffiliationBucket {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return domain.BucketOther
	}

	for _, kw := range []string{"republican", "gop", "conservative", "right"} {
		if strings.Contains(text, kw) {
			return domain.BucketRepublican
		}
	}
	for _, kw := range []string{"democrat", "liberal", "progressive", "left"} {
		if strings.Contains(text, kw) {
			return domain.BucketLiberal
		}
	}
	return domain.BucketOther
}
