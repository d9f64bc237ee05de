package index

// Posting records that a term occurs in a paragraph and how often.
type Posting struct {
	ParaID uint32 // Paragraph id as assigned by the corpus
	TF     int    // Occurrences of the term in the paragraph
}

// PostingList is a slice of Posting, one entry per paragraph containing the term.
// Entries are appended in indexing order; lookups do not rely on any sort order.
type PostingList []Posting

// Without returns the list minus the posting for paraID, reusing the backing array.
func (pl PostingList) Without(paraID uint32) PostingList {
	kept := pl[:0]
	for _, p := range pl {
		if p.ParaID != paraID {
			kept = append(kept, p)
		}
	}
	return kept
}
