package store

import "time"

// File is one indexed source file.
type File struct {
	ID          int64
	Path        string
	Language    string
	Hash        string
	LastIndexed time.Time
}
