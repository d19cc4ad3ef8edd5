// =============================================================================
// Receipt-to-SQL Converter - Receipt Loader Module
// =============================================================================
//
// This module reads every receipt document in a directory into memory.
//
// FEATURES:
//   - Extension filter (case-insensitive, default ".txt")
//   - Legacy single-byte encodings decoded to UTF-8
//   - UTF-8 byte-order marks stripped
//   - Unicode NFC normalization so accented markers always compare equal
//   - Deterministic order: documents are sorted by file name
//
// =============================================================================

package receiptloader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// TYPES
// =============================================================================

// Document is a receipt file loaded into memory.
type Document struct {
	// Name is the base file name, used as the document key.
	Name string

	// Text is the decoded, NFC-normalized content.
	Text string
}

// Options controls which files are loaded and how they are decoded.
type Options struct {
	// Extension is matched case-insensitively against the end of the name.
	Extension string

	// Encoding is the character encoding of the files.
	Encoding string
}

// DirectoryError reports an input directory that is missing or not a directory.
type DirectoryError struct {
	Path string
	Err  error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("invalid receipt directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}

// errNotDirectory is wrapped by DirectoryError when the path is a file.
var errNotDirectory = errors.New("not a directory")

// =============================================================================
// LOADER
// =============================================================================

// Load reads all receipt documents in dir.
//
// RETURNS:
//   - The documents sorted by name.
//   - A *DirectoryError if dir is missing or not a directory.
//   - Any other error if a matching file cannot be read or decoded.
func Load(dir string, opts Options) ([]Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &DirectoryError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &DirectoryError{Path: dir, Err: errNotDirectory}
	}

	dec, err := decoderFor(opts.Encoding)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &DirectoryError{Path: dir, Err: err}
	}

	ext := strings.ToLower(opts.Extension)
	if ext == "" {
		ext = ".txt"
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ext) {
			continue
		}

		text, err := readDocument(filepath.Join(dir, entry.Name()), dec)
		if err != nil {
			return nil, fmt.Errorf("failed to read receipt %s: %w", entry.Name(), err)
		}

		docs = append(docs, Document{Name: entry.Name(), Text: text})
	}

	// os.ReadDir already sorts by name; keep the guarantee explicit since
	// first-seen deduplication depends on it.
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })

	return docs, nil
}

// readDocument reads and decodes a single file.
func readDocument(path string, dec *encoding.Decoder) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var reader io.Reader = bufio.NewReader(file)
	if dec != nil {
		reader = transform.NewReader(reader, dec)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode file: %w", err)
	}

	text := strings.TrimPrefix(string(data), "\ufeff")
	return norm.NFC.String(text), nil
}

// encodings maps every accepted encoding name, upper-cased, to its charmap.
// UTF-8 needs no decoding and maps to nil.
var encodings = map[string]*charmap.Charmap{
	"UTF-8":        nil,
	"UTF8":         nil,
	"ISO-8859-1":   charmap.ISO8859_1,
	"LATIN1":       charmap.ISO8859_1,
	"ISO-8859-15":  charmap.ISO8859_15,
	"LATIN9":       charmap.ISO8859_15,
	"WINDOWS-1252": charmap.Windows1252,
	"CP1252":       charmap.Windows1252,
}

// SupportedEncoding reports whether name is an encoding Load can decode.
// Names are matched case-insensitively.
func SupportedEncoding(name string) bool {
	_, ok := encodings[strings.ToUpper(strings.TrimSpace(name))]
	return ok
}

// EncodingNames returns the accepted encoding names, sorted.
func EncodingNames() []string {
	names := make([]string, 0, len(encodings))
	for name := range encodings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// decoderFor returns the decoder for a configured encoding, or nil for UTF-8.
func decoderFor(name string) (*encoding.Decoder, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	cm, ok := encodings[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unsupported encoding: %s", name)
	}
	if cm == nil {
		return nil, nil
	}
	return cm.NewDecoder(), nil
}
