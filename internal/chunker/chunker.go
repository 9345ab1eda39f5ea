package chunker

import (
	"regexp"
	"strings"

	"github.com/accelnorm/docindex/pkg/types"
)

// Default chunking parameters, in characters.
const (
	DefaultMaxChunkSize = 800
	DefaultOverlap      = 100
	DefaultMinChunkSize = 120
)

// sectionBreak marks a structural boundary: a run of blank lines between
// blocks of normalised document text.
var sectionBreak = regexp.MustCompile(`\n{2,}`)

// Chunker splits a document into overlapping, semantically coherent text
// units with stable identifiers. Chunking is a pure function of document
// content and configuration: the same input always yields the same ordered
// chunks with the same offsets and IDs.
type Chunker struct {
	maxSize int
	overlap int
	minSize int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxChunkSize sets the maximum chunk length in characters.
func WithMaxChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.maxSize = size
		}
	}
}

// WithOverlap sets the overlap between sliding-window chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithMinChunkSize sets the length below which a whole document becomes a
// single chunk.
func WithMinChunkSize(size int) Option {
	return func(c *Chunker) {
		if size >= 0 {
			c.minSize = size
		}
	}
}

// New creates a Chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxSize: DefaultMaxChunkSize,
		overlap: DefaultOverlap,
		minSize: DefaultMinChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave forward progress for the sliding window
	if c.overlap >= c.maxSize {
		c.overlap = c.maxSize / 4
	}
	return c
}

// Chunk splits a document into an ordered sequence of chunks. Structural
// section boundaries are honored first; a section longer than the maximum
// chunk length falls back to a sliding window with overlap, so concepts
// spanning a window boundary stay retrievable from at least one chunk.
//
// An empty document yields zero chunks. A document shorter than the
// minimum chunk length yields exactly one chunk.
func (c *Chunker) Chunk(doc *types.Document) []types.Chunk {
	content := doc.Content
	if strings.TrimSpace(content) == "" {
		return nil
	}

	if len(content) <= c.minSize {
		return []types.Chunk{c.makeChunk(doc.SourceID, content, 0, len(content), 0)}
	}

	chunks := make([]types.Chunk, 0)
	seq := 0
	for _, sec := range c.sections(content) {
		for _, w := range c.windows(sec) {
			chunks = append(chunks, c.makeChunk(doc.SourceID, content, w.start, w.end, seq))
			seq++
		}
	}
	return chunks
}

// span is a half-open character range within the document.
type span struct {
	start, end int
}

// sections splits content into spans at blank-line boundaries, skipping
// whitespace-only spans.
func (c *Chunker) sections(content string) []span {
	breaks := sectionBreak.FindAllStringIndex(content, -1)

	spans := make([]span, 0, len(breaks)+1)
	start := 0
	for _, b := range breaks {
		if s, ok := trimSpan(content, start, b[0]); ok {
			spans = append(spans, s)
		}
		start = b[1]
	}
	if s, ok := trimSpan(content, start, len(content)); ok {
		spans = append(spans, s)
	}
	return spans
}

// windows splits a section into maxSize windows advancing by
// maxSize-overlap, or returns the section itself when it fits.
func (c *Chunker) windows(s span) []span {
	if s.end-s.start <= c.maxSize {
		return []span{s}
	}

	stride := c.maxSize - c.overlap
	windows := make([]span, 0, (s.end-s.start)/stride+1)
	for start := s.start; start < s.end; start += stride {
		end := start + c.maxSize
		if end >= s.end {
			windows = append(windows, span{start, s.end})
			break
		}
		windows = append(windows, span{start, end})
	}
	return windows
}

// trimSpan narrows a span to exclude leading and trailing whitespace.
// Returns false for whitespace-only spans.
func trimSpan(content string, start, end int) (span, bool) {
	for start < end && isSpace(content[start]) {
		start++
	}
	for end > start && isSpace(content[end-1]) {
		end--
	}
	if start >= end {
		return span{}, false
	}
	return span{start, end}, true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func (c *Chunker) makeChunk(sourceID, content string, start, end, seq int) types.Chunk {
	chunk := types.Chunk{
		SourceID:    sourceID,
		Seq:         seq,
		StartOffset: start,
		EndOffset:   end,
		Content:     content[start:end],
	}
	chunk.ComputeID()
	return chunk
}
