package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"manual.html", FormatHTML},
		{"manual.HTM", FormatHTML},
		{"manual.xhtml", FormatHTML},
		{"manual.txt", FormatPlain},
		{"manual.md", FormatPlain},
		{"manual", FormatPlain},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectFormat(tt.path), tt.path)
	}
}

func TestLoadHTMLManual(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manual.html")
	content := `<html><head><title>Reference Manual</title></head>
<body><h1>Intro</h1><p>First paragraph.</p><p>Second &amp; final.</p></body></html>`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	doc, err := Load(path, "manual-v1")
	require.NoError(t, err)

	assert.Equal(t, "manual-v1", doc.SourceID)
	assert.Contains(t, doc.Content, "Intro")
	assert.Contains(t, doc.Content, "First paragraph.")
	assert.Contains(t, doc.Content, "Second & final.")
	assert.NotContains(t, doc.Content, "<p>")
	assert.NotContains(t, doc.Content, "Reference Manual") // head content dropped
	assert.Equal(t, "Reference Manual", doc.Title)
	assert.False(t, doc.IngestedAt.IsZero())
}

func TestLoadRequiresSourceID(t *testing.T) {
	_, err := Load("whatever.html", "")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.html"), "src")
	assert.Error(t, err)
}

func TestStripHTMLKeepsSectionBreaks(t *testing.T) {
	in := `<h1>Section One</h1><p>Body one.</p><h1>Section Two</h1><p>Body two.</p>`
	out := StripHTML(in)

	sections := strings.Split(out, "\n\n")
	assert.GreaterOrEqual(t, len(sections), 4)
	assert.Equal(t, "Section One", sections[0])
}

func TestStripHTMLRemovesScriptAndStyle(t *testing.T) {
	in := `<p>keep</p><script>var x = 1;</script><style>body {color: red}</style>`
	out := StripHTML(in)

	assert.Contains(t, out, "keep")
	assert.NotContains(t, out, "var x")
	assert.NotContains(t, out, "color")
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "My Manual", ExtractTitle(`<title> My Manual </title>`))
	assert.Equal(t, "", ExtractTitle(`<p>no title</p>`))
}

func TestNewPlainNormalisesLineEndings(t *testing.T) {
	doc := New("line one\r\nline two\r", "src", FormatPlain)
	assert.Equal(t, "line one\nline two", doc.Content)
	assert.Empty(t, doc.Title)
}

func TestNewHTMLCarriesTitle(t *testing.T) {
	doc := New(`<html><head><title>User Guide</title></head><body><p>text</p></body></html>`, "src", FormatHTML)
	assert.Equal(t, "User Guide", doc.Title)
	assert.Equal(t, "text", doc.Content)
}
