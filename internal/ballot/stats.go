package ballot

import "github.com/jschilling12/justabill/internal/domain"

// ComputeStats turns a raw tally into counts and agreement percentages.
// Skip votes count toward the total but are excluded from the percentage
// denominator: agree/disagree describe only decisive (up/down) votes.
// A tally with no decisive votes yields zero percents, never NaN.
func ComputeStats(tally domain.VoteTally) domain.VoteStats {
	counts := domain.VoteCounts{
		Up:    tally.Up,
		Down:  tally.Down,
		Skip:  tally.Skip,
		Total: tally.Up + tally.Down + tally.Skip,
	}

	var percents domain.VotePercents
	if decisive := tally.Up + tally.Down; decisive > 0 {
		percents.AgreePct = 100 * float64(tally.Up) / float64(decisive)
		percents.DisagreePct = 100 * float64(tally.Down) / float64(decisive)
	}

	return domain.VoteStats{Counts: counts, Percents: percents}
}

// Tally counts a user's votes by value.
func Tally(votes []domain.Vote) domain.VoteTally {
	var t domain.VoteTally
	for _, v := range votes {
		switch v.Value {
		case domain.VoteUp:
			t.Up++
		case domain.VoteDown:
			t.Down++
		case domain.VoteSkip:
			t.Skip++
		}
	}
	return t
}
