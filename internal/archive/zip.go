// Package archive unpacks zipped supplier price lists in memory.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNoEntries is returned when an archive holds no price list files
	ErrNoEntries = errors.New("archive contains no price list files")

	// ErrEntryRequired is returned when an archive holds several price list
	// files and none was chosen
	ErrEntryRequired = errors.New("archive contains several price list files; choose one")
)

// Options limits what is extracted
type Options struct {
	// MaxFileSize is the maximum size of a single entry in bytes (0 = unlimited)
	MaxFileSize int64
	// MaxTotalSize is the maximum size of all extracted entries (0 = unlimited)
	MaxTotalSize int64
	// MaxFiles is the maximum number of extracted entries (0 = unlimited)
	MaxFiles int
	// AllowedExtensions filters entries by extension, case-insensitively (empty = all)
	AllowedExtensions []string
	// SkipPatterns drops entries whose name contains any of them
	SkipPatterns []string
}

// DefaultOptions returns the limits used for supplier archives
func DefaultOptions() Options {
	return Options{
		MaxFileSize:       100 * 1024 * 1024,
		MaxTotalSize:      512 * 1024 * 1024,
		MaxFiles:          1000,
		AllowedExtensions: []string{".csv", ".txt", ".dat", ".xlsx", ".xlsm"},
		SkipPatterns:      []string{"__MACOSX", ".DS_Store", "Thumbs.db", "desktop.ini"},
	}
}

// Entry is one file extracted from an archive. Name is the flattened base name.
type Entry struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	Hash    string `json:"hash"`
	Content []byte `json:"-"`
}

// IsArchive reports whether a file name looks like a zip archive
func IsArchive(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".zip")
}

// Expand extracts the price list entries of a zip archive in archive order.
// Entries with unsafe paths are skipped; limits are enforced on the bytes
// actually read, not the sizes the archive declares.
func Expand(ctx context.Context, content []byte, opts Options) ([]Entry, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	// insecure names are rejected per entry below
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("failed to open zip archive: %w", err)
	}

	var entries []Entry
	var totalSize int64

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if file.FileInfo().IsDir() {
			continue
		}

		name, err := sanitizeName(file.Name)
		if err != nil {
			log.Warn().Str("entry", file.Name).Err(err).Msg("Skipping archive entry")
			continue
		}
		if opts.skip(file.Name) || !opts.allowed(name) {
			continue
		}

		if opts.MaxFiles > 0 && len(entries) >= opts.MaxFiles {
			return nil, fmt.Errorf("too many files in archive (limit: %d)", opts.MaxFiles)
		}
		if opts.MaxFileSize > 0 && int64(file.UncompressedSize64) > opts.MaxFileSize {
			return nil, fmt.Errorf("entry %s exceeds maximum size (%d > %d)", name, file.UncompressedSize64, opts.MaxFileSize)
		}

		data, err := readEntry(file, name, opts.MaxFileSize)
		if err != nil {
			return nil, err
		}

		totalSize += int64(len(data))
		if opts.MaxTotalSize > 0 && totalSize > opts.MaxTotalSize {
			return nil, fmt.Errorf("total extracted size exceeds maximum (%d > %d)", totalSize, opts.MaxTotalSize)
		}

		sum := sha256.Sum256(data)
		entries = append(entries, Entry{
			Name:    name,
			Size:    int64(len(data)),
			Hash:    hex.EncodeToString(sum[:]),
			Content: data,
		})
	}

	return entries, nil
}

// Select returns the entry called name, or the only entry when name is empty
func Select(entries []Entry, name string) (Entry, error) {
	if len(entries) == 0 {
		return Entry{}, ErrNoEntries
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		if name != "" && e.Name == name {
			return e, nil
		}
		names[i] = e.Name
	}

	if name != "" {
		return Entry{}, fmt.Errorf("entry %q not found. Available entries: %s", name, strings.Join(names, ", "))
	}
	if len(entries) > 1 {
		return Entry{}, fmt.Errorf("%w: %s", ErrEntryRequired, strings.Join(names, ", "))
	}
	return entries[0], nil
}

func readEntry(file *zip.File, name string, limit int64) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open entry %s: %w", name, err)
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil {
			log.Warn().Str("entry", name).Err(closeErr).Msg("Failed to close archive entry")
		}
	}()

	var r io.Reader = rc
	if limit > 0 {
		// one extra byte detects entries larger than declared
		r = io.LimitReader(rc, limit+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read entry %s: %w", name, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("entry %s exceeds maximum size (actual data > %d bytes)", name, limit)
	}
	return data, nil
}

// sanitizeName rejects absolute and escaping paths and flattens the rest to
// their base name
func sanitizeName(name string) (string, error) {
	if path.IsAbs(name) || filepath.IsAbs(name) {
		return "", fmt.Errorf("absolute path not allowed: %s", name)
	}
	if len(name) >= 2 && name[1] == ':' {
		return "", fmt.Errorf("drive letter not allowed: %s", name)
	}

	cleaned := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if strings.HasPrefix(cleaned, "/") {
		return "", fmt.Errorf("path traversal not allowed: %s", name)
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." {
			return "", fmt.Errorf("path traversal not allowed: %s", name)
		}
	}

	base := path.Base(cleaned)
	if base == "." || base == "/" || base == "" {
		return "", fmt.Errorf("invalid file name: %s", name)
	}
	return base, nil
}

func (o Options) skip(name string) bool {
	for _, pattern := range o.SkipPatterns {
		if strings.Contains(name, pattern) {
			return true
		}
	}
	return false
}

func (o Options) allowed(name string) bool {
	if len(o.AllowedExtensions) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, allowed := range o.AllowedExtensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}
