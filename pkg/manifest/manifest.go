// Package manifest reads and rewrites the version field of package.json-like
// files. Only the version value changes; the rest of the document is written
// back in its original order.
package manifest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatOf picks the format from the file extension. Anything that is not
// YAML is treated as JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// document is the format specific half of a Manifest.
type document interface {
	version() string
	setVersion(v string) error
	encode() ([]byte, error)
}

type Manifest struct {
	fs     afero.Fs
	path   string
	format Format
	mode   os.FileMode
	doc    document
}

// Open reads and validates the manifest at path.
func Open(fs afero.Fs, path string) (*Manifest, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, &IOError{Op: "stat", Path: path, Err: err}
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	m := &Manifest{
		fs:     fs,
		path:   path,
		format: FormatOf(path),
		mode:   info.Mode().Perm(),
	}
	if m.doc, err = decode(m.format, data); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return m, nil
}

func decode(format Format, data []byte) (document, error) {
	if format == YAML {
		return decodeYAML(data)
	}
	return decodeJSON(data)
}

func (m *Manifest) Path() string {
	return m.path
}

func (m *Manifest) Format() Format {
	return m.format
}

// Version returns the current value of the version field.
func (m *Manifest) Version() string {
	return m.doc.version()
}

func (m *Manifest) SetVersion(v string) error {
	return m.doc.setVersion(v)
}

// Bytes renders the manifest with two space indentation.
func (m *Manifest) Bytes() ([]byte, error) {
	return m.doc.encode()
}

// Save writes the manifest back to its path, keeping the file mode.
func (m *Manifest) Save() error {
	data, err := m.Bytes()
	if err != nil {
		return &DecodeError{Path: m.path, Err: err}
	}
	if err := afero.WriteFile(m.fs, m.path, data, m.mode); err != nil {
		return &IOError{Op: "write", Path: m.path, Err: err}
	}
	return nil
}
