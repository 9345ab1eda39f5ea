package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accelnorm/docindex/pkg/types"
)

func doc(content string) *types.Document {
	return &types.Document{SourceID: "test-src", Content: content}
}

func TestNew(t *testing.T) {
	c := New()
	assert.NotNil(t, c)
	assert.Equal(t, DefaultMaxChunkSize, c.maxSize)
	assert.Equal(t, DefaultOverlap, c.overlap)
}

func TestNewClampsOverlap(t *testing.T) {
	c := New(WithMaxChunkSize(100), WithOverlap(150))
	assert.Equal(t, 25, c.overlap)
}

func TestChunkEmptyDocument(t *testing.T) {
	c := New()
	assert.Empty(t, c.Chunk(doc("")))
	assert.Empty(t, c.Chunk(doc("  \n\n\t ")))
}

func TestChunkShortDocumentSingleChunk(t *testing.T) {
	c := New()
	chunks := c.Chunk(doc("a short note"))

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, len("a short note"), chunks[0].EndOffset)
	assert.Equal(t, 0, chunks[0].Seq)
	assert.NoError(t, chunks[0].Validate())
}

func TestChunkSectionsBecomeChunks(t *testing.T) {
	content := strings.Repeat("a", 200) + "\n\n" + strings.Repeat("b", 300)
	c := New(WithMaxChunkSize(800), WithOverlap(100))
	chunks := c.Chunk(doc(content))

	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("a", 200), chunks[0].Content)
	assert.Equal(t, strings.Repeat("b", 300), chunks[1].Content)
	assert.Equal(t, 0, chunks[0].Seq)
	assert.Equal(t, 1, chunks[1].Seq)
}

// Mirrors the canonical scenario: sections of 50, 500 and 2000 characters
// with max chunk length 800 and overlap 100 produce 1 + 1 + 3 chunks.
func TestChunkOversizedSectionSlidingWindow(t *testing.T) {
	content := strings.Repeat("a", 50) + "\n\n" +
		strings.Repeat("b", 500) + "\n\n" +
		strings.Repeat("c", 2000)

	c := New(WithMaxChunkSize(800), WithOverlap(100), WithMinChunkSize(120))
	chunks := c.Chunk(doc(content))

	require.Len(t, chunks, 5)

	// Sections 1 and 2 fit in a single chunk each
	assert.Equal(t, 50, chunks[0].Len())
	assert.Equal(t, 500, chunks[1].Len())

	// Section 3 splits into three overlapping windows
	third := chunks[2:]
	assert.Equal(t, 800, third[0].Len())
	assert.Equal(t, 800, third[1].Len())
	assert.Equal(t, 600, third[2].Len())

	// Consecutive windows overlap by exactly the configured amount
	assert.Equal(t, 100, third[0].EndOffset-third[1].StartOffset)
	assert.Equal(t, 100, third[1].EndOffset-third[2].StartOffset)

	// Sequence indexes are contiguous and ordered
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Seq)
		assert.NoError(t, chunk.Validate())
	}
}

func TestChunkDeterminism(t *testing.T) {
	content := strings.Repeat("alpha beta gamma ", 200) + "\n\n" + strings.Repeat("delta ", 100)
	c := New()

	first := c.Chunk(doc(content))
	second := c.Chunk(doc(content))

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].StartOffset, second[i].StartOffset)
		assert.Equal(t, first[i].EndOffset, second[i].EndOffset)
	}
}

func TestChunkIDsDependOnSource(t *testing.T) {
	content := strings.Repeat("text ", 100)
	c := New()

	a := c.Chunk(&types.Document{SourceID: "src-a", Content: content})
	b := c.Chunk(&types.Document{SourceID: "src-b", Content: content})

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.NotEqual(t, a[i].ID, b[i].ID)
	}
}

func TestChunkIDsUniqueWithinDocument(t *testing.T) {
	content := strings.Repeat("x", 3000)
	c := New(WithMaxChunkSize(500), WithOverlap(50))
	chunks := c.Chunk(doc(content))

	seen := make(map[string]bool)
	for _, chunk := range chunks {
		assert.False(t, seen[chunk.ID], "duplicate chunk ID %s", chunk.ID)
		seen[chunk.ID] = true
	}
}

func TestChunkOffsetsSliceContent(t *testing.T) {
	content := "first section here\n\n" + strings.Repeat("body ", 400)
	c := New(WithMaxChunkSize(600), WithOverlap(60))
	chunks := c.Chunk(doc(content))

	for _, chunk := range chunks {
		assert.Equal(t, content[chunk.StartOffset:chunk.EndOffset], chunk.Content)
	}
}

func TestChunkSkipsWhitespaceOnlySections(t *testing.T) {
	content := strings.Repeat("a", 200) + "\n\n   \n\n" + strings.Repeat("b", 200)
	c := New()
	chunks := c.Chunk(doc(content))

	require.Len(t, chunks, 2)
	assert.NotEmpty(t, strings.TrimSpace(chunks[0].Content))
	assert.NotEmpty(t, strings.TrimSpace(chunks[1].Content))
}
