package badger

import (
	"encoding/binary"

	"github.com/poiesic/aisearch/core"
)

// Key prefixes for different data types
const (
	documentPrefix = "doc:"
	passagePrefix  = "psg:"
	summaryPrefix  = "sum:"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id string) []byte {
	return []byte(documentPrefix + id)
}

// makePassagePrefix generates the prefix shared by all passages of a document.
// Format: prefix:documentID\x00
func makePassagePrefix(documentID string) []byte {
	buf := make([]byte, 0, len(passagePrefix)+len(documentID)+1)
	buf = append(buf, passagePrefix...)
	buf = append(buf, documentID...)
	return append(buf, 0)
}

// makePassageKey generates a composite key for a passage.
// Format: prefix:documentID\x00chunkIndex
func makePassageKey(documentID string, chunkIndex int) []byte {
	prefix := makePassagePrefix(documentID)
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	// Write in BigEndian order so passages iterate in chunk order
	binary.BigEndian.PutUint32(buf[offset:], uint32(chunkIndex))
	return buf
}

// makeSummaryKey generates a key for a cached summary.
func makeSummaryKey(fp core.Fingerprint) []byte {
	buf := make([]byte, len(summaryPrefix)+8)
	offset := copy(buf, summaryPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(fp))
	return buf
}
