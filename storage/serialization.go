// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/aisearch/core"
)

const recordVersion = 1

// fieldCoder is implemented by the size counter and the writer so that a
// record layout is declared once for both passes.
type fieldCoder interface {
	int(v int)
	int64(v int64)
	string(v string)
	strings(v []string)
	floats(v []float32)
}

type sizer struct{ n int }

func (s *sizer) int(v int)       { s.n += varint.Int.Size(v) }
func (s *sizer) int64(v int64)   { s.n += varint.Int64.Size(v) }
func (s *sizer) string(v string) { s.n += ord.String.Size(v) }

func (s *sizer) strings(v []string) {
	s.int(len(v))
	for _, str := range v {
		s.string(str)
	}
}

func (s *sizer) floats(v []float32) {
	s.int(len(v))
	for _, f := range v {
		s.n += raw.Float32.Size(f)
	}
}

type writer struct {
	bs []byte
	n  int
}

func (w *writer) int(v int)       { w.n += varint.Int.Marshal(v, w.bs[w.n:]) }
func (w *writer) int64(v int64)   { w.n += varint.Int64.Marshal(v, w.bs[w.n:]) }
func (w *writer) string(v string) { w.n += ord.String.Marshal(v, w.bs[w.n:]) }

func (w *writer) strings(v []string) {
	w.int(len(v))
	for _, str := range v {
		w.string(str)
	}
}

func (w *writer) floats(v []float32) {
	w.int(len(v))
	for _, f := range v {
		w.n += raw.Float32.Marshal(f, w.bs[w.n:])
	}
}

// reader decodes fields in order and keeps the first error.
type reader struct {
	bs  []byte
	n   int
	err error
}

func (r *reader) int() int {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) int64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

// length reads a collection length and checks it against the bytes left,
// given the minimum encoded size of one element.
func (r *reader) length(minElem int) int {
	l := r.int()
	if r.err != nil {
		return 0
	}
	if l < 0 || l*minElem > len(r.bs)-r.n {
		r.err = ErrTruncatedData
		return 0
	}
	return l
}

func (r *reader) strings() []string {
	l := r.length(1)
	if l == 0 {
		return nil
	}
	out := make([]string, 0, l)
	for i := 0; i < l && r.err == nil; i++ {
		out = append(out, r.string())
	}
	return out
}

func (r *reader) floats() []float32 {
	l := r.length(4)
	if l == 0 {
		return nil
	}
	out := make([]float32, l)
	for i := range out {
		if r.err != nil {
			return nil
		}
		v, n, err := raw.Float32.Unmarshal(r.bs[r.n:])
		r.n += n
		r.err = err
		out[i] = v
	}
	return out
}

func (r *reader) version() {
	if v := r.int(); r.err == nil && v != recordVersion {
		r.err = fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
}

func (r *reader) finish() error {
	if r.err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, r.err)
	}
	return nil
}

func encodeDocument(c fieldCoder, doc *core.Document) {
	c.int(recordVersion)
	c.string(doc.ID)
	c.string(doc.Metadata.Title)
	c.strings(doc.Metadata.Creators)
	c.string(doc.Metadata.Description)
	c.string(doc.Metadata.PublicationDate)
	c.string(doc.Metadata.ResourceType)
	c.string(doc.Metadata.License)
	c.string(doc.Metadata.AccessStatus)
	c.floats(doc.Vector)
	var indexed int64
	if !doc.IndexedAt.IsZero() {
		indexed = doc.IndexedAt.UnixMicro()
	}
	c.int64(indexed)
}

func encodePassage(c fieldCoder, p *core.Passage) {
	c.int(recordVersion)
	c.string(p.DocumentID)
	c.int(p.ChunkIndex)
	c.int(p.ChunkCount)
	c.string(p.Text)
	c.int(p.WordCount)
	c.int(p.CharStart)
	c.int(p.CharEnd)
	c.floats(p.Vector)
}

// MarshalDocument encodes a document record.
func MarshalDocument(doc *core.Document) []byte {
	s := &sizer{}
	encodeDocument(s, doc)
	w := &writer{bs: make([]byte, s.n)}
	encodeDocument(w, doc)
	return w.bs
}

// UnmarshalDocument decodes a document record.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	r := &reader{bs: data}
	r.version()
	doc := &core.Document{
		ID: r.string(),
		Metadata: core.Metadata{
			Title:           r.string(),
			Creators:        r.strings(),
			Description:     r.string(),
			PublicationDate: r.string(),
			ResourceType:    r.string(),
			License:         r.string(),
			AccessStatus:    r.string(),
		},
		Vector: r.floats(),
	}
	if micros := r.int64(); micros != 0 {
		doc.IndexedAt = time.UnixMicro(micros).UTC()
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return doc, nil
}

// MarshalPassage encodes a passage record.
func MarshalPassage(p *core.Passage) []byte {
	s := &sizer{}
	encodePassage(s, p)
	w := &writer{bs: make([]byte, s.n)}
	encodePassage(w, p)
	return w.bs
}

// UnmarshalPassage decodes a passage record.
func UnmarshalPassage(data []byte) (*core.Passage, error) {
	r := &reader{bs: data}
	r.version()
	p := &core.Passage{
		DocumentID: r.string(),
		ChunkIndex: r.int(),
		ChunkCount: r.int(),
		Text:       r.string(),
		WordCount:  r.int(),
		CharStart:  r.int(),
		CharEnd:    r.int(),
		Vector:     r.floats(),
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return p, nil
}

// MarshalString encodes a single string value.
func MarshalString(s string) []byte {
	buf := make([]byte, ord.String.Size(s))
	ord.String.Marshal(s, buf)
	return buf
}

// UnmarshalString decodes a single string value.
func UnmarshalString(data []byte) (string, error) {
	r := &reader{bs: data}
	s := r.string()
	if err := r.finish(); err != nil {
		return "", err
	}
	return s, nil
}
