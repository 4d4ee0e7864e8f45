package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders case documents as PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document from the case sections.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("pdf requires at least one section")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.MultiCell(0, 8, strings.ToUpper(doc.Title), "", "C", false)
		pdf.Ln(2)
	}
	if doc.RefCode != "" {
		pdf.SetFont("Arial", "I", 10)
		pdf.MultiCell(0, 6, doc.RefCode, "", "C", false)
		pdf.Ln(4)
	}

	for _, section := range doc.Sections {
		pdf.SetFont("Arial", "B", 11)
		pdf.MultiCell(0, 7, section.Heading, "", "L", false)
		pdf.SetFont("Arial", "", 10)
		for _, p := range section.Paragraphs {
			pdf.MultiCell(0, 5, p, "", "L", false)
			pdf.Ln(1)
		}
		pdf.Ln(3)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
