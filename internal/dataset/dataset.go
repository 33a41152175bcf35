// Package dataset contains the filter dataset and its on-disk storage.
package dataset

import (
	"fmt"
	"io/fs"

	"github.com/AdguardTeam/golibs/errors"
)

// Dataset is an opaque filter dataset along with its revalidation tag.
type Dataset struct {
	// Data is the dataset blob.  It is never empty for a valid dataset.
	Data []byte

	// Tag is the revalidation tag supplied by the server.  It is empty if the
	// server didn't supply one.
	Tag string
}

// File name constants.
const (
	// DataExt is the extension of the dataset blob file.
	DataExt = ".dat"

	// TagSuffix is appended to the path of the dataset blob file to get the
	// path of the revalidation-tag file.
	TagSuffix = ".etag"
)

// Permission constants for the storage directory and its files.
const (
	DefaultDirPerm  fs.FileMode = 0o700
	DefaultFilePerm fs.FileMode = 0o600
)

// StoreError is returned by the methods of [*Store] when a file-system
// operation fails.  Absence of a dataset is not an error.
type StoreError struct {
	// Err is the underlying error.
	Err error

	// Op is the operation that failed, for example "reading data".
	Op string

	// Path is the file or directory the operation was performed on.
	Path string
}

// type check
var _ error = (*StoreError)(nil)

// Error implements the error interface for *StoreError.
func (err *StoreError) Error() (msg string) {
	return fmt.Sprintf("dataset store: %s %q: %s", err.Op, err.Path, err.Err)
}

// type check
var _ errors.Wrapper = (*StoreError)(nil)

// Unwrap implements the [errors.Wrapper] interface for *StoreError.
func (err *StoreError) Unwrap() (unwrapped error) {
	return err.Err
}
