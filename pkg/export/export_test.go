package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() Document {
	return Document{
		Title:   "Land Dispute",
		RefCode: "ABC-001",
		Sections: []Section{
			{Heading: "Analysis", Paragraphs: []string{"Category: Property Law", "Viability: 72/100"}},
			{Heading: "Q&A", Paragraphs: []string{"Q: Can I appeal?", "A: Yes, within 90 days."}},
		},
	}
}

func TestPDFExporterRender(t *testing.T) {
	data, err := NewPDFExporter().Render(sampleDoc())
	require.NoError(t, err)
	assert.True(t, len(data) > 4)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestPDFExporterRequiresSections(t *testing.T) {
	_, err := NewPDFExporter().Render(Document{Title: "Empty"})
	require.Error(t, err)
}

func TestWordExporterRender(t *testing.T) {
	data, err := NewWordExporter().Render(sampleDoc())
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, `{\rtf1`)
	assert.Contains(t, body, "LAND DISPUTE")
	assert.Contains(t, body, "ABC-001")
}

func TestWordExporterEscapesControlCharacters(t *testing.T) {
	doc := Document{Sections: []Section{{Heading: "Facts", Paragraphs: []string{`braces {and} \slashes`}}}}
	data, err := NewWordExporter().Render(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `\{and\}`)
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat("pdf")
	require.True(t, ok)
	assert.Equal(t, FormatPDF, f)
	f, ok = ParseFormat("docx")
	require.True(t, ok)
	assert.Equal(t, FormatWord, f)
	_, ok = ParseFormat("csv")
	assert.False(t, ok)
}
