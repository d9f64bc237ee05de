package search

// candidateHit represents a paragraph candidate during search processing
type candidateHit struct {
	paraID       uint32
	score        float64
	matchedTerms []string
	matchedSet   map[string]struct{}
}
