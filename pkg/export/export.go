package export

// Format selects the rendered document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatWord Format = "word"
)

// Extent selects how much of a case goes into the document.
type Extent string

const (
	ExtentFull         Extent = "full"
	ExtentAnalysisOnly Extent = "analysis"
	ExtentQAOnly       Extent = "qa"
)

// Document is the renderer-agnostic content of a case export.
type Document struct {
	Title    string
	RefCode  string
	Sections []Section
}

// Section is one titled block of the export.
type Section struct {
	Heading    string
	Paragraphs []string
}

// Renderer turns a document into format-specific bytes.
type Renderer interface {
	Render(doc Document) ([]byte, error)
}

// ParseFormat maps loose user input onto a known format.
func ParseFormat(raw string) (Format, bool) {
	switch raw {
	case "pdf", "PDF":
		return FormatPDF, true
	case "word", "Word", "doc", "docx":
		return FormatWord, true
	}
	return "", false
}
