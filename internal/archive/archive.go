// Package archive assembles grading submissions from an uploaded document
// or zip archive, enforcing the extraction safety limits.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/jonathan/rubric-grader/internal/grading"
)

// Limits bounds what gets pulled out of an upload.
type Limits struct {
	// MaxFileBytes skips individual entries above this size.
	MaxFileBytes int
	// MaxEntries caps how many documents are taken from one archive;
	// further entries are skipped, not an error.
	MaxEntries int
}

// DefaultLimits mirrors the production ceilings: 50 MiB per file, 100
// documents per archive.
func DefaultLimits() Limits {
	return Limits{
		MaxFileBytes: 50 * 1024 * 1024,
		MaxEntries:   100,
	}
}

// AllowedUpload reports whether the upload filename has a supported
// extension (pdf or zip).
func AllowedUpload(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf", ".zip":
		return true
	}
	return false
}

// IsZip sniffs the upload content for a zip archive. Extension alone is not
// trusted; the detector reads the actual magic bytes.
func IsZip(data []byte) bool {
	return mimetype.Detect(data).Is("application/zip")
}

// FromUpload turns one upload into an ordered submission set. A zip is
// exploded under the limits; anything else becomes a single submission. The
// returned error is an input problem that should stop the batch before it
// starts.
func FromUpload(name string, data []byte, limits Limits, logger zerolog.Logger) ([]grading.Submission, error) {
	if !AllowedUpload(name) {
		return nil, &grading.InputError{Message: fmt.Sprintf("unsupported file type: %s", name)}
	}
	if IsZip(data) {
		return explodeZip(data, limits, logger)
	}
	return []grading.Submission{{Name: path.Base(name), Data: data}}, nil
}

// explodeZip extracts PDF entries from the archive. Metadata-only entries
// and directories are ignored; oversized entries and anything past the
// entry cap are skipped with a warning rather than failing the batch.
func explodeZip(data []byte, limits Limits, logger zerolog.Logger) ([]grading.Submission, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &grading.InputError{Message: fmt.Sprintf("unreadable zip archive: %v", err)}
	}

	var subs []grading.Submission
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name, "__MACOSX") {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(entry.Name), ".pdf") {
			continue
		}
		if limits.MaxFileBytes > 0 && entry.UncompressedSize64 > uint64(limits.MaxFileBytes) {
			logger.Warn().
				Str("entry", entry.Name).
				Uint64("size", entry.UncompressedSize64).
				Msg("skipping oversized archive entry")
			continue
		}
		if limits.MaxEntries > 0 && len(subs) >= limits.MaxEntries {
			logger.Warn().Int("max", limits.MaxEntries).Msg("reached max entry count, skipping rest")
			break
		}

		content, err := readEntry(entry, limits.MaxFileBytes)
		if err != nil {
			logger.Warn().Err(err).Str("entry", entry.Name).Msg("skipping unreadable archive entry")
			continue
		}
		subs = append(subs, grading.Submission{Name: path.Base(entry.Name), Data: content})
	}

	return subs, nil
}

// readEntry reads one archive entry, guarding against declared sizes that
// lie about the real uncompressed length.
func readEntry(entry *zip.File, maxBytes int) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if maxBytes > 0 {
		r = io.LimitReader(rc, int64(maxBytes)+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if maxBytes > 0 && len(content) > maxBytes {
		return nil, fmt.Errorf("entry larger than declared size")
	}
	return content, nil
}
