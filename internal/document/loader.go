package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Loader reads documents from a filesystem.
type Loader struct {
	fs afero.Fs
}

// NewLoader creates a loader over fs. Pass afero.NewOsFs() for the real
// filesystem.
func NewLoader(fs afero.Fs) *Loader {
	return &Loader{fs: fs}
}

// LoadStatement reads and parses a query document.
func (l *Loader) LoadStatement(path string) (*Statement, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, err
	}
	s, err := ParseStatement(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// LoadMigration reads and parses a migration document.
func (l *Loader) LoadMigration(path string) (*Migration, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, err
	}
	m, err := ParseMigration(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Glob lists the .yaml and .yml files of dir in lexical order, which is
// the order migrations apply in.
func (l *Loader) Glob(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := afero.Glob(l.fs, filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return files, nil
}

// ParseStatement parses a query document. Unknown top-level keys are
// rejected.
func ParseStatement(data []byte) (*Statement, error) {
	var s Statement
	if err := decodeStrict(data, &s); err != nil {
		return nil, err
	}
	if s.Kind == "" {
		return nil, fmt.Errorf("document has no statement kind")
	}
	return &s, nil
}

// ParseMigration parses a migration document.
func ParseMigration(data []byte) (*Migration, error) {
	var m Migration
	if err := decodeStrict(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty document")
		}
		return err
	}
	return nil
}
