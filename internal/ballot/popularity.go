package ballot

// DefaultPopularityThreshold is the mention count at which a bill is
// flagged popular. Operators override it via POPULARITY_THRESHOLD.
const DefaultPopularityThreshold = 3

// Popularity applies the threshold rule to an external mention count.
// The score is the mention count itself; there is no decay or weighting.
func Popularity(mentionCount, threshold int) (isPopular bool, score int) {
	return mentionCount >= threshold, mentionCount
}
