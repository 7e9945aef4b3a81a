// Package scan discovers image files below a root directory.
package scan

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"

	"github.com/bstardust/exif-analyzer/internal/fileinfo"
	"github.com/bstardust/exif-analyzer/internal/logger"
	"github.com/bstardust/exif-analyzer/pkg/common"
	"github.com/karrick/godirwalk"
)

// ErrNotDirectory is returned when the scan root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// errStop aborts a walk when the consumer stops ranging.
var errStop = errors.New("scan stopped")

// Scanner walks directory trees. A Scanner holds only options and may be
// shared between goroutines.
type Scanner struct {
	followSymlinks bool
}

// Option configures a Scanner.
type Option func(*Scanner)

// FollowSymlinks makes recursive scans descend into symlinked directories.
// Directories already visited are skipped, so link cycles terminate.
func FollowSymlinks(follow bool) Option {
	return func(s *Scanner) {
		s.followSymlinks = follow
	}
}

// New creates a new scanner
func New(opts ...Option) *Scanner {
	s := &Scanner{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan validates root and returns the sequence of matching file paths.
// Nothing is read until the sequence is ranged over, and every range walks
// the tree again, so the result reflects the file system at that time.
//
// Within a directory paths come in lexical order.
func (s *Scanner) Scan(root string, recursive bool, exts fileinfo.ExtensionSet) (iter.Seq[string], error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, common.NewScanError(root, fmt.Errorf("failed to stat scan root: %w", err))
	}
	if !info.IsDir() {
		return nil, common.NewScanError(root, ErrNotDirectory)
	}

	if !recursive {
		return func(yield func(string) bool) {
			s.scanFlat(root, exts, yield)
		}, nil
	}
	return func(yield func(string) bool) {
		s.scanTree(root, exts, yield)
	}, nil
}

// Collect drains a sequence into a slice.
func Collect(seq iter.Seq[string]) []string {
	var out []string
	for p := range seq {
		out = append(out, p)
	}
	return out
}

func (s *Scanner) scanFlat(root string, exts fileinfo.ExtensionSet, yield func(string) bool) {
	dirents, err := godirwalk.ReadDirents(root, nil)
	if err != nil {
		logger.Warn("Failed to read directory %s: %v", root, err)
		return
	}
	sort.Sort(dirents)

	for _, de := range dirents {
		if !exts.Matches(de.Name()) {
			continue
		}
		path := filepath.Join(root, de.Name())
		if !isRegular(path, de) {
			continue
		}
		if !yield(path) {
			return
		}
	}
}

func (s *Scanner) scanTree(root string, exts fileinfo.ExtensionSet, yield func(string) bool) {
	var visited []os.FileInfo

	err := godirwalk.Walk(root, &godirwalk.Options{
		FollowSymbolicLinks: s.followSymlinks,
		Callback: func(path string, de *godirwalk.Dirent) error {
			isDir, err := de.IsDirOrSymlinkToDir()
			if err != nil {
				// dangling link
				return nil
			}

			if isDir {
				if de.IsSymlink() && !s.followSymlinks {
					return godirwalk.SkipThis
				}
				return s.enterDir(path, &visited)
			}

			if !exts.Matches(de.Name()) || !isRegular(path, de) {
				return nil
			}
			if !yield(path) {
				return errStop
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			if errors.Is(err, errStop) {
				return godirwalk.Halt
			}
			logger.Warn("Skipping %s: %v", path, err)
			return godirwalk.SkipNode
		},
	})
	if err != nil && !errors.Is(err, errStop) {
		logger.Warn("Scan of %s ended early: %v", root, err)
	}
}

// enterDir records a directory as visited, or skips it if it was seen
// before under another path.
func (s *Scanner) enterDir(path string, visited *[]os.FileInfo) error {
	if !s.followSymlinks {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		logger.Warn("Skipping directory %s: %v", path, err)
		return godirwalk.SkipThis
	}
	for _, seen := range *visited {
		if os.SameFile(seen, info) {
			logger.Debug("Skipping already visited directory %s", path)
			return godirwalk.SkipThis
		}
	}
	*visited = append(*visited, info)
	return nil
}

func isRegular(path string, de *godirwalk.Dirent) bool {
	if de.IsRegular() {
		return true
	}
	if !de.IsSymlink() {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
