package handlers

import (
	"strconv"
	"strings"
)

// byteRange is a resolved, satisfiable slice [start, start+length).
type byteRange struct {
	start, length int64
}

// parseRanges resolves a Range header against an object of the given size.
// It returns ErrInvalidRange when the header is malformed or no range overlaps
// the content. Non-overlapping parts of a multi-range request are dropped.
func parseRanges(header string, size int64) ([]byteRange, error) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return nil, ErrInvalidRange
	}
	var ranges []byteRange
	for _, part := range strings.Split(header[len(prefix):], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		first, last, ok := strings.Cut(part, "-")
		if !ok {
			return nil, ErrInvalidRange
		}
		first, last = strings.TrimSpace(first), strings.TrimSpace(last)
		var r byteRange
		if first == "" {
			// Suffix form: the final N bytes.
			n, err := parseOffset(last)
			if err != nil {
				return nil, err
			}
			if n == 0 || size == 0 {
				continue
			}
			if n > size {
				n = size
			}
			r = byteRange{start: size - n, length: n}
		} else {
			start, err := parseOffset(first)
			if err != nil {
				return nil, err
			}
			if start >= size {
				continue
			}
			end := size - 1
			if last != "" {
				end, err = parseOffset(last)
				if err != nil {
					return nil, err
				}
				if end < start {
					return nil, ErrInvalidRange
				}
				if end >= size {
					end = size - 1
				}
			}
			r = byteRange{start: start, length: end - start + 1}
		}
		ranges = append(ranges, r)
	}
	if len(ranges) == 0 {
		return nil, ErrInvalidRange
	}
	return ranges, nil
}

func parseOffset(raw string) (int64, error) {
	if raw == "" || strings.HasPrefix(raw, "-") || strings.HasPrefix(raw, "+") {
		return 0, ErrInvalidRange
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrInvalidRange
	}
	return v, nil
}
