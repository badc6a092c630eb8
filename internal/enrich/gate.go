package enrich

// Admission thresholds protecting the AI budget from low-signal threads.
// Both boundaries are inclusive: a thread at exactly 50 points and 10
// comments qualifies.
const (
	minScore        = 50
	minCommentCount = 10
)

// Eligible reports whether a thread has enough engagement to be worth a
// summarization call.
func Eligible(score, commentCount int) bool {
	return score >= minScore && commentCount >= minCommentCount
}
