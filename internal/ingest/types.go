// Package ingest turns inbound chat files into stored objects and replies
// with their stream links.
package ingest

import (
	"github.com/memohai/streamrelay/internal/media"
)

// FileStore is the subset of the media store the processor writes to.
type FileStore interface {
	Put(id string, content []byte, filename, mime string) error
	MaxBytes() int64
}

var _ FileStore = (*media.Store)(nil)

// File is a received file ready to be stored.
type File struct {
	ID       string
	Filename string
	Mime     string
	Content  []byte
}

// Result describes a stored file and its public link.
type Result struct {
	ID        string
	Filename  string
	Mime      string
	SizeBytes int64
	StreamURL string
}
