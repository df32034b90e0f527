package document

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/treeflow/pkg/errors"
)

// Format names a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Formats lists every supported encoding.
var Formats = []Format{FormatJSON, FormatTOML, FormatYAML}

// ParseFormat accepts a format name or a file extension with or without the
// leading dot.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported document format %q", s)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", errors.New(errors.ErrCodeInvalidFormat, "%s: missing file extension", path)
	}
	return ParseFormat(ext)
}

// =============================================================================
// Document Serialization API
// =============================================================================

// Marshal encodes a document in the given format.
func Marshal(doc Document, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(doc, &buf, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes and validates a document.
func Unmarshal(data []byte, format Format) (Document, error) {
	return Read(bytes.NewReader(data), format)
}

// Write encodes a document to w.
func Write(doc Document, w io.Writer, format Format) error {
	if doc.Version == 0 {
		doc.Version = Version
	}
	var err error
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	case FormatTOML:
		err = toml.NewEncoder(w).Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(doc); err == nil {
			err = enc.Close()
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported document format %q", format)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDocument, err, "encode %s", format)
	}
	return nil
}

// Read decodes a document from r and validates it.
func Read(r io.Reader, format Format) (Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&doc)
	case FormatTOML:
		_, err = toml.NewDecoder(r).Decode(&doc)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	default:
		return Document{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported document format %q", format)
	}
	if err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode %s", format)
	}
	if doc.Version == 0 {
		doc.Version = Version
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// WriteFile writes a document, choosing the format from the extension.
// The file is created with 0644 permissions.
func WriteFile(doc Document, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Marshal(doc, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}

// ReadFile reads a document, choosing the format from the extension.
func ReadFile(path string) (Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Document{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return Document{}, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()
	return Read(f, format)
}
