package index

import (
	"bytes"
	"encoding/gob"
	"sync"

	"github.com/gcbaptista/go-mrc-prep/config"
)

// InvertedIndex maps a term to the paragraphs containing it and keeps the
// collection statistics needed by the language-model and BM25 scorers.
type InvertedIndex struct {
	Mu             sync.RWMutex
	Index          map[string]PostingList
	CollectionFreq map[string]int        // Total occurrences of each term across all paragraphs
	TotalTokens    int                   // Sum of all paragraph lengths
	Settings       *config.IndexSettings // Reference to settings for this index
}

// NewInvertedIndex returns an empty index bound to settings.
func NewInvertedIndex(settings *config.IndexSettings) *InvertedIndex {
	return &InvertedIndex{
		Index:          make(map[string]PostingList),
		CollectionFreq: make(map[string]int),
		Settings:       settings,
	}
}

// Reset drops every posting and statistic. Callers must hold Mu.
func (ii *InvertedIndex) Reset() {
	ii.Index = make(map[string]PostingList)
	ii.CollectionFreq = make(map[string]int)
	ii.TotalTokens = 0
}

// DocFreq returns the number of paragraphs containing term. Callers must hold Mu.
func (ii *InvertedIndex) DocFreq(term string) int {
	return len(ii.Index[term])
}

// gobInvertedIndexData is a helper struct for Gob encoding/decoding InvertedIndex data.
// It excludes the mutex.
type gobInvertedIndexData struct {
	Index          map[string]PostingList
	CollectionFreq map[string]int
	TotalTokens    int
	Settings       *config.IndexSettings
}

// GobEncode implements the gob.GobEncoder interface for InvertedIndex.
func (ii *InvertedIndex) GobEncode() ([]byte, error) {
	ii.Mu.RLock()
	defer ii.Mu.RUnlock()

	dataToEncode := gobInvertedIndexData{
		Index:          ii.Index,
		CollectionFreq: ii.CollectionFreq,
		TotalTokens:    ii.TotalTokens,
		Settings:       ii.Settings,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(dataToEncode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for InvertedIndex.
func (ii *InvertedIndex) GobDecode(data []byte) error {
	decodedData := gobInvertedIndexData{}
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&decodedData); err != nil {
		return err
	}

	ii.Mu.Lock()
	defer ii.Mu.Unlock()

	ii.Index = decodedData.Index
	ii.CollectionFreq = decodedData.CollectionFreq
	ii.TotalTokens = decodedData.TotalTokens
	if decodedData.Settings != nil {
		ii.Settings = decodedData.Settings
	}

	// gob omits empty maps
	if ii.Index == nil {
		ii.Index = make(map[string]PostingList)
	}
	if ii.CollectionFreq == nil {
		ii.CollectionFreq = make(map[string]int)
	}
	return nil
}
