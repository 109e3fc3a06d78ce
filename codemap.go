package codemap

import "errors"

// Errors returned by IndexFile. They are wrapped with the offending path,
// so compare with errors.Is.
var (
	// ErrUnsupportedExtension means the file's extension maps to no enabled
	// language. It is returned before the file is read.
	ErrUnsupportedExtension = errors.New("codemap: unsupported file extension")
	// ErrReadFailure means the file could not be read.
	ErrReadFailure = errors.New("codemap: read failure")
	// ErrParseFailure means the syntax provider could not produce a tree.
	ErrParseFailure = errors.New("codemap: parse failure")
)
