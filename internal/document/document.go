// Package document loads a materialized manual and normalises it into the
// plain-text form the chunker consumes. HTML input has its markup stripped
// while keeping paragraph and section breaks; plain text and markdown pass
// through with line endings normalised.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/accelnorm/docindex/pkg/types"
)

// Format identifies the input markup of a manual.
type Format string

const (
	FormatHTML  Format = "html"
	FormatPlain Format = "plain"
)

// DetectFormat picks a format from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return FormatHTML
	default:
		return FormatPlain
	}
}

// Load reads a manual from disk and normalises it into a Document. The
// source identifier distinguishes this manual from every other indexed
// document; it is the caller's stable key, not derived from the path.
func Load(path, sourceID string) (*types.Document, error) {
	if sourceID == "" {
		return nil, fmt.Errorf("%w: source identifier is required", types.ErrInvalidInput)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}

	return New(string(raw), sourceID, DetectFormat(path)), nil
}

// New normalises already-materialized content into a Document. HTML
// input contributes its <title> element, read before the markup is
// stripped away.
func New(content, sourceID string, format Format) *types.Document {
	var text, title string
	switch format {
	case FormatHTML:
		title = ExtractTitle(content)
		text = StripHTML(content)
	default:
		text = normalizeText(content)
	}

	return &types.Document{
		SourceID:   sourceID,
		Title:      title,
		Content:    text,
		IngestedAt: time.Now(),
	}
}

// normalizeText canonicalises line endings and trims trailing whitespace
// per line so chunk offsets are stable regardless of the producing
// platform.
func normalizeText(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
