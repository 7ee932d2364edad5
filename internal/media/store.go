package media

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"
)

// Store is the transient, process-local file store. All entries are lost on
// restart. A single mutex guards the index; objects themselves are immutable
// so a reader holding an *Object never observes a later overwrite.
type Store struct {
	mu      sync.Mutex
	entries *simplelru.LRU
	total   int64
	opts    Options
	now     func() time.Time
	logger  *slog.Logger
}

// NewStore creates an empty store bounded by opts.
func NewStore(log *slog.Logger, opts Options) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if opts.MaxObjectBytes > MaxObjectBytes {
		log.Warn("max object bytes above the admission ceiling, clamping",
			slog.Int64("configured", opts.MaxObjectBytes),
			slog.Int64("ceiling", MaxObjectBytes),
		)
	}
	if opts.MaxObjectBytes <= 0 || opts.MaxObjectBytes > MaxObjectBytes {
		opts.MaxObjectBytes = MaxObjectBytes
	}
	if opts.MaxTotalBytes > 0 && opts.MaxTotalBytes < opts.MaxObjectBytes {
		return nil, fmt.Errorf("max total bytes %d is below max object bytes %d", opts.MaxTotalBytes, opts.MaxObjectBytes)
	}
	size := opts.MaxEntries
	if size <= 0 {
		size = math.MaxInt32
	}
	s := &Store{
		opts:   opts,
		now:    time.Now,
		logger: log.With(slog.String("service", "media")),
	}
	lru, err := simplelru.NewLRU(size, s.onEvict)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	s.entries = lru
	return s, nil
}

// MaxBytes returns the admission ceiling. Callers use it for early checks so
// the limit itself lives only here.
func (s *Store) MaxBytes() int64 {
	return s.opts.MaxObjectBytes
}

// Options returns the bounds the store was created with.
func (s *Store) Options() Options {
	return s.opts
}

// Put inserts or overwrites the object stored under id. The content is copied.
func (s *Store) Put(id string, content []byte, filename, mime string) error {
	if !ValidIdentifier(id) {
		return ErrMalformedIdentifier
	}
	if int64(len(content)) > s.opts.MaxObjectBytes {
		return fmt.Errorf("%w: %d bytes, max %d", ErrOversizedInput, len(content), s.opts.MaxObjectBytes)
	}
	mime = strings.TrimSpace(mime)
	if mime == "" {
		mime = DefaultMime
	}
	now := s.now()
	obj := &Object{
		ID:        id,
		Filename:  strings.TrimSpace(filename),
		Mime:      mime,
		SizeBytes: int64(len(content)),
		CreatedAt: now,
		content:   bytes.Clone(content),
	}
	if obj.content == nil {
		obj.content = []byte{}
	}
	if s.opts.TTL > 0 {
		obj.ExpiresAt = now.Add(s.opts.TTL)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.entries.Peek(id); ok {
		// Overwrites do not fire the eviction callback.
		s.total -= prev.(*Object).SizeBytes
	}
	s.entries.Add(id, obj)
	s.total += obj.SizeBytes
	for s.opts.MaxTotalBytes > 0 && s.total > s.opts.MaxTotalBytes && s.entries.Len() > 1 {
		s.entries.RemoveOldest()
	}
	s.logger.Debug("object stored",
		slog.String("id", id),
		slog.String("mime", mime),
		slog.Int64("size_bytes", obj.SizeBytes),
	)
	return nil
}

// Get returns the object stored under id.
func (s *Store) Get(id string) (*Object, error) {
	if !ValidIdentifier(id) {
		return nil, ErrMalformedIdentifier
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.entries.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	obj := value.(*Object)
	if obj.expired(s.now()) {
		s.entries.Remove(id)
		return nil, ErrNotFound
	}
	return obj, nil
}

// Delete evicts id. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) error {
	if !ValidIdentifier(id) {
		return ErrMalformedIdentifier
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries.Remove(id)
	return nil
}

// Sweep removes every entry expired at now and returns how many were removed.
func (s *Store) Sweep(now time.Time) int {
	if s.opts.TTL <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, key := range s.entries.Keys() {
		value, ok := s.entries.Peek(key)
		if !ok {
			continue
		}
		if value.(*Object).expired(now) {
			s.entries.Remove(key)
			removed++
		}
	}
	return removed
}

// Stats reports the current number of entries and their total size.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Entries: s.entries.Len(), TotalBytes: s.total}
}

// onEvict runs with s.mu held.
func (s *Store) onEvict(key, value any) {
	obj := value.(*Object)
	s.total -= obj.SizeBytes
	s.logger.Debug("object evicted", slog.Any("id", key), slog.Int64("size_bytes", obj.SizeBytes))
}
