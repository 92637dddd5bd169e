// Package ballot implements the vote aggregation and personal-verdict
// computations: turning raw tallies into counts and percentages, mapping a
// user's upvote ratio to a qualitative verdict, and the popularity
// threshold rule. Everything here is pure; storage lives in the adapters.
package ballot
