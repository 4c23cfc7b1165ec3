package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind is a supported document format, named by its file extension
type Kind string

// Supported document kinds
const (
	KindPDF  Kind = "pdf"
	KindDOC  Kind = "doc"
	KindDOCX Kind = "docx"
	KindXLS  Kind = "xls"
	KindXLSX Kind = "xlsx"
)

var (
	// ErrUnsupportedKind is returned for extensions outside the supported set
	ErrUnsupportedKind = errors.New("unsupported document kind")
	// ErrUnreadable is returned when the bytes cannot be opened as the declared kind
	ErrUnreadable = errors.New("document cannot be opened")
	// ErrTooLarge is returned when a file exceeds the configured size limit
	ErrTooLarge = errors.New("document too large")
)

// Document is an uploaded file: its bytes plus the declared kind. Nothing in
// the pipeline modifies Data.
type Document struct {
	Name string
	Kind Kind
	Data []byte
}

// Kinds lists every supported kind
func Kinds() []Kind {
	return []Kind{KindPDF, KindDOC, KindDOCX, KindXLS, KindXLSX}
}

// KindFromExtension maps a file name to its kind
func KindFromExtension(name string) (Kind, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, k := range Kinds() {
		if string(k) == ext {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, filepath.Ext(name))
}

// New builds a document from in-memory bytes, inferring the kind from name
func New(name string, data []byte) (*Document, error) {
	kind, err := KindFromExtension(name)
	if err != nil {
		return nil, err
	}
	return &Document{Name: filepath.Base(name), Kind: kind, Data: data}, nil
}

// Open reads a document from disk, enforcing maxSize when it is positive
func Open(path string, maxSize int64) (*Document, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrTooLarge, info.Size(), maxSize)
	}

	kind, err := KindFromExtension(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return &Document{Name: filepath.Base(path), Kind: kind, Data: data}, nil
}

// BaseName returns the file name without its extension
func (d *Document) BaseName() string {
	return strings.TrimSuffix(d.Name, filepath.Ext(d.Name))
}
