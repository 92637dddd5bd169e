package ballot

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jschilling12/justabill/internal/domain"
)

// Verdict labels, derived from a user's upvote ratio over decisive votes.
const (
	VerdictSupport       = "Likely Support"
	VerdictOppose        = "Likely Oppose"
	VerdictMixed         = "Mixed / Unsure"
	VerdictNotEnoughData = "Not enough votes"
)

// Thresholds are inclusive: exactly 0.80 is support, exactly 0.20 is oppose.
const (
	supportThreshold = 0.80
	opposeThreshold  = 0.20
)

// Verdict maps an upvote ratio to its qualitative label. A nil ratio means
// no decisive votes were cast, which is distinct from zero support.
func Verdict(ratio *float64) string {
	switch {
	case ratio == nil:
		return VerdictNotEnoughData
	case *ratio >= supportThreshold:
		return VerdictSupport
	case *ratio <= opposeThreshold:
		return VerdictOppose
	default:
		return VerdictMixed
	}
}

// UpvoteRatio computes up/(up+down), or nil when no decisive votes exist.
func UpvoteRatio(tally domain.VoteTally) *float64 {
	decisive := tally.Up + tally.Down
	if decisive == 0 {
		return nil
	}
	ratio := float64(tally.Up) / float64(decisive)
	return &ratio
}

// BuildSummary assembles a user's personal verdict on a bill from their
// votes and the recaps of the sections they voted on. Liked and disliked
// lists follow the bill's section ordering, not submission order; skipped
// sections appear in neither. Zero votes is a normal state and yields the
// "not enough votes" verdict with empty lists.
func BuildSummary(userID, billID uuid.UUID, votes []domain.Vote, recaps []domain.SectionRecap, now time.Time) *domain.BillSummary {
	tally := Tally(votes)
	ratio := UpvoteRatio(tally)

	recapByID := make(map[uuid.UUID]domain.SectionRecap, len(recaps))
	for _, r := range recaps {
		recapByID[r.SectionID] = r
	}

	liked := make([]domain.SectionRecap, 0, tally.Up)
	disliked := make([]domain.SectionRecap, 0, tally.Down)
	for _, v := range votes {
		recap, ok := recapByID[v.SectionID]
		if !ok {
			continue
		}
		switch v.Value {
		case domain.VoteUp:
			liked = append(liked, recap)
		case domain.VoteDown:
			disliked = append(disliked, recap)
		}
	}

	sortRecaps(liked)
	sortRecaps(disliked)

	return &domain.BillSummary{
		UserID:           userID,
		BillID:           billID,
		UpvoteCount:      tally.Up,
		DownvoteCount:    tally.Down,
		SkipCount:        tally.Skip,
		UpvoteRatio:      ratio,
		VerdictLabel:     Verdict(ratio),
		LikedSections:    liked,
		DislikedSections: disliked,
		GeneratedAt:      now,
	}
}

func sortRecaps(recaps []domain.SectionRecap) {
	sort.Slice(recaps, func(i, j int) bool {
		return recaps[i].OrderIndex < recaps[j].OrderIndex
	})
}
