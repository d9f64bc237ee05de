package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"
)

// ParagraphStore keeps the text and token length of every indexed paragraph.
type ParagraphStore struct {
	Mu         sync.RWMutex
	Paragraphs map[uint32]string // Paragraph id to space-joined segmented text
	Lengths    map[uint32]int    // Paragraph id to number of analyzed terms
}

// NewParagraphStore returns an empty store.
func NewParagraphStore() *ParagraphStore {
	return &ParagraphStore{
		Paragraphs: make(map[uint32]string),
		Lengths:    make(map[uint32]int),
	}
}

// Get returns the stored paragraph text. Callers must hold Mu.
func (ps *ParagraphStore) Get(id uint32) (string, bool) {
	text, ok := ps.Paragraphs[id]
	return text, ok
}

// Len returns the number of stored paragraphs. Callers must hold Mu.
func (ps *ParagraphStore) Len() int {
	return len(ps.Paragraphs)
}

// Reset drops every paragraph. Callers must hold Mu.
func (ps *ParagraphStore) Reset() {
	ps.Paragraphs = make(map[uint32]string)
	ps.Lengths = make(map[uint32]int)
}

// gobParagraphStoreData is a helper struct for Gob encoding/decoding ParagraphStore data.
// It excludes the mutex.
type gobParagraphStoreData struct {
	Paragraphs map[uint32]string
	Lengths    map[uint32]int
}

// GobEncode implements the gob.GobEncoder interface for ParagraphStore.
func (ps *ParagraphStore) GobEncode() ([]byte, error) {
	ps.Mu.RLock()
	defer ps.Mu.RUnlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobParagraphStoreData{
		Paragraphs: ps.Paragraphs,
		Lengths:    ps.Lengths,
	}); err != nil {
		return nil, fmt.Errorf("failed to gob encode paragraph store data: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for ParagraphStore.
func (ps *ParagraphStore) GobDecode(data []byte) error {
	decodedData := gobParagraphStoreData{}
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&decodedData); err != nil {
		return fmt.Errorf("failed to gob decode paragraph store data: %w", err)
	}

	ps.Mu.Lock()
	defer ps.Mu.Unlock()

	ps.Paragraphs = decodedData.Paragraphs
	ps.Lengths = decodedData.Lengths
	if ps.Paragraphs == nil {
		ps.Paragraphs = make(map[uint32]string)
	}
	if ps.Lengths == nil {
		ps.Lengths = make(map[uint32]int)
	}
	return nil
}
