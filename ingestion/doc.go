// Package ingestion loads records into an index.
//
// Each record's text is split into overlapping word windows by a Chunker.
// The pipeline embeds a document-level text (title, creators and description,
// or the first passage when those are empty) together with every passage, then
// hands the document and its passages to a storage.DocumentWriter.
//
// Records are processed concurrently on a worker pool. Embedding calls are
// retried with exponential backoff; a record that still fails is reported in
// the joined error returned by IndexAll and does not stop the others.
package ingestion
