package media

import (
	"bytes"
	"time"
)

// DefaultMime is used for objects whose upstream type is unknown.
const DefaultMime = "application/octet-stream"

// MaxObjectBytes is the admission ceiling for a single stored object (50 MiB, inclusive).
const MaxObjectBytes int64 = 50 * 1024 * 1024

// Object is one uploaded file held in memory. It is never mutated after
// insertion; an overwrite replaces the whole *Object in the store.
type Object struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Mime      string    `json:"mime"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	// ExpiresAt is zero when the store has no TTL.
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	content []byte
}

// Bytes returns the stored content. The slice is shared and must not be modified.
func (o *Object) Bytes() []byte {
	return o.content
}

// Reader returns a fresh seekable reader over the content.
func (o *Object) Reader() *bytes.Reader {
	return bytes.NewReader(o.content)
}

func (o *Object) expired(now time.Time) bool {
	return !o.ExpiresAt.IsZero() && !now.Before(o.ExpiresAt)
}

// Options bounds the store. Zero values disable the corresponding limit,
// except MaxObjectBytes which falls back to MaxObjectBytes.
type Options struct {
	MaxObjectBytes int64
	MaxEntries     int
	MaxTotalBytes  int64
	TTL            time.Duration
}

// Unbounded reports whether nothing limits how many objects the store keeps.
func (o Options) Unbounded() bool {
	return o.MaxEntries <= 0 && o.MaxTotalBytes <= 0 && o.TTL <= 0
}

// Stats is a point-in-time view of store occupancy.
type Stats struct {
	Entries    int   `json:"entries"`
	TotalBytes int64 `json:"total_bytes"`
}
