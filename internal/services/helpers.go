package services

import (
	"strings"
	"time"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// appendNote adds a timestamped line; existing notes are never rewritten.
func appendNote(existing, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return existing
	}
	line := "[" + time.Now().UTC().Format("2006-01-02 15:04") + "] " + note
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}
