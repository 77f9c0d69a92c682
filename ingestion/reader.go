package ingestion

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/aisearch/core"
)

// Record is one line of a JSONL corpus file.
type Record struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Creators        []string `json:"creators"`
	Description     string   `json:"description"`
	PublicationDate string   `json:"publication_date"`
	ResourceType    string   `json:"resource_type"`
	License         string   `json:"license"`
	AccessStatus    string   `json:"access_status"`
	Text            string   `json:"text"`
}

// Metadata returns the descriptive fields of the record.
func (r *Record) Metadata() core.Metadata {
	return core.Metadata{
		Title:           strings.TrimSpace(r.Title),
		Creators:        r.Creators,
		Description:     strings.TrimSpace(r.Description),
		PublicationDate: r.PublicationDate,
		ResourceType:    r.ResourceType,
		License:         r.License,
		AccessStatus:    r.AccessStatus,
	}
}

// ReadRecords decodes a stream of JSON objects, one per record.
// Records without an id are rejected.
func ReadRecords(r io.Reader) ([]*Record, error) {
	dec := json.NewDecoder(r)
	var records []*Record
	for {
		rec := &Record{}
		err := dec.Decode(rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records)+1, err)
		}
		if rec.ID == "" {
			return nil, fmt.Errorf("record %d: %w", len(records)+1, core.ErrEmptyID)
		}
		records = append(records, rec)
	}
}
