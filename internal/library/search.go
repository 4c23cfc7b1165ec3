// Package library lists the documents available for extraction under the
// configured directory.
package library

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/a3tai/pdf-form-schema/internal/document"
	"github.com/a3tai/pdf-form-schema/internal/security"
)

// FileInfo describes one document on disk
type FileInfo struct {
	Path         string        `json:"path"`
	Name         string        `json:"name"`
	Kind         document.Kind `json:"kind"`
	Size         int64         `json:"size"`
	ModifiedTime string        `json:"modified_time"`
}

// Result is the outcome of a directory search
type Result struct {
	Directory string     `json:"directory"`
	Query     string     `json:"query,omitempty"`
	Files     []FileInfo `json:"files"`
	Total     int        `json:"total"`
	Truncated bool       `json:"truncated,omitempty"`
}

// Search walks directories inside the validator's root
type Search struct {
	paths       *security.PathValidator
	maxFileSize int64
}

// NewSearch creates a search confined to paths' root. Files larger than
// maxFileSize are left out when it is positive.
func NewSearch(paths *security.PathValidator, maxFileSize int64) *Search {
	return &Search{paths: paths, maxFileSize: maxFileSize}
}

// Find lists supported documents below dir whose names match query. An empty
// dir searches the root; limit <= 0 means no limit. Hidden directories are
// skipped and unreadable entries ignored.
func (s *Search) Find(dir, query string, limit int) (*Result, error) {
	root, err := s.paths.ResolveDir(dir)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	res := &Result{Directory: root, Query: query, Files: []FileInfo{}}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // keep walking past unreadable entries
		}
		if within, cerr := s.paths.Contains(path); cerr != nil || !within {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		kind, kerr := document.KindFromExtension(d.Name())
		if kerr != nil || !Matches(d.Name(), q) {
			return nil //nolint:nilerr // unsupported files are not an error
		}
		info, ierr := d.Info()
		if ierr != nil || info.Size() == 0 || (s.maxFileSize > 0 && info.Size() > s.maxFileSize) {
			return nil //nolint:nilerr
		}
		if limit > 0 && len(res.Files) >= limit {
			res.Truncated = true
			return filepath.SkipAll
		}
		res.Files = append(res.Files, FileInfo{
			Path:         path,
			Name:         info.Name(),
			Kind:         kind,
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	sort.Slice(res.Files, func(i, j int) bool { return res.Files[i].Path < res.Files[j].Path })
	res.Total = len(res.Files)
	return res, nil
}

// Matches reports whether filename fuzzily matches query: a substring of the
// name, or every query word contained in some word of the name. Matching is
// case-insensitive and an empty query matches everything.
func Matches(filename, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	name := strings.ToLower(filename)
	if strings.Contains(name, query) {
		return true
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	words := splitWords(stem)
	for _, qw := range splitWords(query) {
		found := false
		for _, w := range words {
			if strings.Contains(w, qw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '_', '-', '.', '(', ')', '[', ']':
			return true
		}
		return false
	})
}
