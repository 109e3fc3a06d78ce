package store

import "time"

// File records one indexed source file.
type File struct {
	Path      string    `json:"path"`
	Language  string    `json:"language"`
	Hash      string    `json:"hash"`
	Lines     int       `json:"lines"`
	IndexedAt time.Time `json:"indexedAt"`
}
