package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/AdguardTeam/golibs/errors"
	renameio "github.com/google/renameio/v2"
)

// StoreConfig is the configuration structure for a *Store.
type StoreConfig struct {
	// Logger is used to log the operation of the store.  It must not be nil.
	Logger *slog.Logger

	// Dir is the dedicated storage directory.  It must not be empty.  Store
	// owns the directory and may remove its contents.
	Dir string

	// Name is the name of the dataset.  It must not be empty.
	Name string

	// Version is the version of the dataset.  It must not be empty.
	Version string
}

// Store persists a dataset and its revalidation tag in a dedicated directory.
// The blob is stored as <Name>-<Version>.dat and the tag as a sibling file with
// [TagSuffix] appended to the name.  All methods are safe for concurrent use.
type Store struct {
	logger *slog.Logger

	// mu protects the fields below as well as the files themselves.
	mu *sync.Mutex

	dir      string
	dataPath string
	tagPath  string

	// dirChecked is true if the directory has been checked or created.
	dirChecked bool

	// dirFresh is true if the directory didn't exist and has been created by
	// this store.
	dirFresh bool
}

// NewStore returns a new properly initialized *Store.  It doesn't access the
// file system.  c must not be nil and must be valid.
func NewStore(c *StoreConfig) (s *Store) {
	dataPath := filepath.Join(c.Dir, fmt.Sprintf("%s-%s%s", c.Name, c.Version, DataExt))

	return &Store{
		logger:   c.Logger,
		mu:       &sync.Mutex{},
		dir:      c.Dir,
		dataPath: dataPath,
		tagPath:  dataPath + TagSuffix,
	}
}

// DataPath returns the path to the dataset blob file.
func (s *Store) DataPath() (p string) {
	return s.dataPath
}

// TagPath returns the path to the revalidation-tag file.
func (s *Store) TagPath() (p string) {
	return s.tagPath
}

// Read returns the persisted dataset.  d and err are nil if there is no
// persisted dataset.  Any error returned has the underlying type *StoreError.
func (s *Store) Read(ctx context.Context) (d *Dataset, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.ensureDir(ctx)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return nil, err
	}

	data, err := readOptional(s.dataPath)
	if err != nil {
		return nil, &StoreError{Err: err, Op: "reading data", Path: s.dataPath}
	} else if data == nil {
		s.logger.DebugContext(ctx, "no persisted dataset", "path", s.dataPath)

		return nil, nil
	}

	tag, err := readOptional(s.tagPath)
	if err != nil {
		return nil, &StoreError{Err: err, Op: "reading tag", Path: s.tagPath}
	}

	return &Dataset{
		Data: data,
		Tag:  string(tag),
	}, nil
}

// readOptional reads the file at path.  data and err are nil if the file
// doesn't exist.
func readOptional(path string) (data []byte, err error) {
	// #nosec G304 -- Trust the path, since it is built from the configured
	// directory and dataset name.
	data, err = os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	return data, err
}

// Write persists d, replacing the previous dataset.  If the directory existed
// before the store first accessed it, the directory is removed and recreated
// first, so that no stale files remain.  d must not be nil.  Any error
// returned has the underlying type *StoreError.
func (s *Store) Write(ctx context.Context, d *Dataset) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.ensureDir(ctx)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return err
	}

	if !s.dirFresh {
		err = s.recreateDir(ctx)
		if err != nil {
			// Don't wrap the error, because it's informative enough as is.
			return err
		}
	}

	err = renameio.WriteFile(s.dataPath, d.Data, DefaultFilePerm)
	if err != nil {
		return &StoreError{Err: err, Op: "writing data", Path: s.dataPath}
	}

	err = s.writeTag(d.Tag)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return err
	}

	s.logger.InfoContext(ctx, "dataset persisted", "path", s.dataPath, "size", len(d.Data))

	return nil
}

// writeTag writes tag into the tag file or removes a previously written tag
// file if tag is empty.  s.mu must be locked.
func (s *Store) writeTag(tag string) (err error) {
	if tag != "" {
		err = renameio.WriteFile(s.tagPath, []byte(tag), DefaultFilePerm)
		if err != nil {
			return &StoreError{Err: err, Op: "writing tag", Path: s.tagPath}
		}

		return nil
	}

	err = os.Remove(s.tagPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return &StoreError{Err: err, Op: "removing tag", Path: s.tagPath}
	}

	return nil
}

// ensureDir checks that the directory exists and creates it, if necessary.
// s.mu must be locked.
func (s *Store) ensureDir(ctx context.Context) (err error) {
	if s.dirChecked {
		return nil
	}

	fi, err := os.Stat(s.dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		err = os.MkdirAll(s.dir, DefaultDirPerm)
		if err != nil {
			return &StoreError{Err: err, Op: "creating directory", Path: s.dir}
		}

		s.dirFresh = true
		s.logger.DebugContext(ctx, "created directory", "path", s.dir)
	case err != nil:
		return &StoreError{Err: err, Op: "checking directory", Path: s.dir}
	case !fi.IsDir():
		return &StoreError{Err: errors.Error("not a directory"), Op: "checking directory", Path: s.dir}
	}

	s.dirChecked = true

	return nil
}

// recreateDir removes the directory with all its contents and creates it
// again.  s.mu must be locked.
func (s *Store) recreateDir(ctx context.Context) (err error) {
	err = os.RemoveAll(s.dir)
	if err != nil {
		return &StoreError{Err: err, Op: "removing directory", Path: s.dir}
	}

	err = os.MkdirAll(s.dir, DefaultDirPerm)
	if err != nil {
		return &StoreError{Err: err, Op: "creating directory", Path: s.dir}
	}

	s.logger.DebugContext(ctx, "recreated directory", "path", s.dir)

	return nil
}
